// Package keepalive pings the service's own public URL on an interval so
// free-tier hosts do not idle the process out.
package keepalive

import (
	"context"
	"log"
	"net/http"
	"time"
)

type Pinger struct {
	URL      string
	Interval time.Duration
	Delay    time.Duration
	Client   *http.Client
}

// Start runs the ping loop until ctx is cancelled. No-op when URL is empty.
// First ping fires after Delay, then every Interval.
func (p *Pinger) Start(ctx context.Context) {
	if p.URL == "" {
		return
	}
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.Delay):
		}
		p.ping(ctx, client)

		t := time.NewTicker(p.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				p.ping(ctx, client)
			}
		}
	}()
}

func (p *Pinger) ping(ctx context.Context, client *http.Client) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		log.Printf("[KEEP-ALIVE] bad url: %v", err)
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[KEEP-ALIVE] self-ping failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("[KEEP-ALIVE] self-ping ok")
	} else {
		log.Printf("[KEEP-ALIVE] self-ping responded with status %d", resp.StatusCode)
	}
}
