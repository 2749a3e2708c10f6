package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizradar/circuit"
	"bizradar/config"
	"bizradar/ratelimit"
)

// maxBodyBytes begrenzt die Größe geladener Seiten (2 MiB reichen für
// jede realistische Startseite).
const maxBodyBytes = 2 << 20

// customTransport fügt jeder Anfrage einen Browser-User-Agent hinzu.
type customTransport struct {
	transport http.RoundTripper
}

func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	return t.transport.RoundTrip(req)
}

// Fetcher lädt HTML-Seiten mit Drosselung und Circuit Breaker.
type Fetcher struct {
	Config  *config.Config
	Logger  *zap.Logger
	Breaker *circuit.Breaker
	Limiter *ratelimit.Limiter
	client  *http.Client
}

// NewFetcher erstellt einen neuen HTML-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config:  cfg,
		Logger:  logger,
		Breaker: circuit.NewBreaker(8, 20*time.Second),
		Limiter: ratelimit.NewLimiter(cfg.FetchRPS, 0.2),
		client: &http.Client{
			Timeout:   cfg.FetchTimeout(),
			Transport: &customTransport{transport: http.DefaultTransport},
		},
	}
}

// Fetch lädt das HTML einer URL. Nicht-HTML-Antworten und Fehlerstatus
// werden als Fehler gemeldet.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	log := f.Logger.With(zap.String("url", rawURL))

	if err := f.Limiter.Wait(ctx); err != nil {
		return "", err
	}

	var body string
	err := f.Breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("bad status: %s", resp.Status)
		}

		contentType := resp.Header.Get("Content-Type")
		if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
			return fmt.Errorf("unexpected content type: %s", contentType)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		body = string(data)
		return nil
	})
	if err != nil {
		log.Debug("HTML-Abruf fehlgeschlagen", zap.Error(err))
		return "", err
	}

	log.Debug("HTML-Abruf erfolgreich", zap.Int("bytes", len(body)))
	return body, nil
}
