// Package loadgen drives synthetic session traffic against a running
// server, so the tracker, sweeper and telemetry can be exercised under
// realistic concurrency.
package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/security"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64

	// Token signing inputs. The generator mints its own access tokens so
	// it can simulate many users and devices against a dev server.
	JWTIssuer       string
	JWTAudience     string
	JWTAccessSecret string
	Users           int
	DevicesPerUser  int
}

type Result struct {
	TotalRequests int64
	Failures      int64
	StatusClasses map[string]int64
}

// normalizeProfile maps user input onto a known traffic profile. "me" polls
// the identity endpoint, "devices" lists sessions, "mixed" interleaves both.
func normalizeProfile(profile string) string {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "me":
		return "me"
	case "devices":
		return "devices"
	default:
		return "mixed"
	}
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		return Result{}, fmt.Errorf("loadgen: base URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return Result{}, fmt.Errorf("loadgen: JWT access secret is required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.Users <= 0 {
		cfg.Users = 5
	}
	if cfg.DevicesPerUser <= 0 {
		cfg.DevicesPerUser = 2
	}
	profile := normalizeProfile(cfg.Profile)

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret)
	tokens := make([]string, 0, cfg.Users*cfg.DevicesPerUser)
	for u := 0; u < cfg.Users; u++ {
		for d := 0; d < cfg.DevicesPerUser; d++ {
			token, err := jwtMgr.SignAccessToken(
				fmt.Sprintf("loadgen-user-%d", u),
				fmt.Sprintf("loadgen-sess-%d-%d", u, d),
				cfg.Duration+time.Hour,
			)
			if err != nil {
				return Result{}, fmt.Errorf("loadgen: sign token: %w", err)
			}
			tokens = append(tokens, token)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()

	var (
		total    atomic.Int64
		failures atomic.Int64
		mu       sync.Mutex
		classes  = map[string]int64{}
		wg       sync.WaitGroup
	)
	type job struct {
		token string
		path  string
	}
	work := make(chan job)

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range work {
				status, err := hit(ctx, client, cfg.BaseURL, j.path, j.token)
				total.Add(1)
				if err != nil {
					failures.Add(1)
					continue
				}
				class := classifyStatusClass(status)
				mu.Lock()
				classes[class]++
				mu.Unlock()
				if status >= 500 {
					failures.Add(1)
				}
			}
		}()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			j := job{token: tokens[rng.Intn(len(tokens))], path: pathFor(profile, rng)}
			select {
			case work <- j:
			case <-ctx.Done():
				break loop
			}
		}
	}
	close(work)
	wg.Wait()

	return Result{
		TotalRequests: total.Load(),
		Failures:      failures.Load(),
		StatusClasses: classes,
	}, nil
}

func pathFor(profile string, rng *rand.Rand) string {
	switch profile {
	case "devices":
		return "/api/v1/me/sessions"
	case "me":
		return "/api/v1/me"
	default:
		if rng.Intn(4) == 0 {
			return "/api/v1/me/sessions"
		}
		return "/api/v1/me"
	}
}

func hit(ctx context.Context, client *http.Client, baseURL, path, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
