// Package advisory proxies heart-health questions to a generative
// language API and degrades to fixed canned answers when the upstream
// is unconfigured or failing.
package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/heartguard-api/internal/domain"
)

const (
	// OfflineResponse is returned when no API key is configured.
	OfflineResponse = "AI is not connected."
	// ErrorResponse is returned when the upstream call fails.
	ErrorResponse = "Dr. AI is currently offline."

	responseTypeText = "text"
	responseTypeJSON = "json"
)

const promptTemplate = `Act as a Doctor. User asks: %q.
Provide 3 specific health tips based on the query.
Format strictly as JSON Array: [{"title": "Tip Headline", "detail": "Tip Explanation"}].
No markdown blocks.`

// Gateway answers health questions. It never returns an error to the
// caller: upstream failures turn into the fixed fallback responses so
// the assessment flow is never blocked by the advisory channel.
type Gateway struct {
	client  *GenerativeClient
	cache   Cache
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewGateway wires the generative client behind a circuit breaker and
// response cache.
func NewGateway(client *GenerativeClient, cache Cache, logger *logrus.Logger) *Gateway {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "AdvisoryAPI",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Gateway{
		client:  client,
		cache:   cache,
		breaker: breaker,
		log:     logger,
	}
}

// Ask answers a single health question.
func (g *Gateway) Ask(ctx context.Context, query string) *domain.AdvisoryResponse {
	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.AdvisoryResponse{
			Response: "Please ask a health question.",
			Type:     responseTypeText,
		}
	}

	if !g.client.Configured() {
		return &domain.AdvisoryResponse{
			Response: OfflineResponse,
			Type:     responseTypeText,
		}
	}

	key := CacheKey(strings.ToLower(query))
	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, key); ok {
			return cached
		}
	}

	prompt := fmt.Sprintf(promptTemplate, query)

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.Generate(ctx, prompt)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			err = fmt.Errorf("%w: circuit breaker open", domain.ErrAdvisoryOffline)
		} else {
			err = fmt.Errorf("%w: %v", domain.ErrAdvisoryOffline, err)
		}
		g.log.WithError(err).WithField("code", domain.ErrCodeAdvisoryOffline).Warn("Advisory upstream unavailable, returning fallback")
		return &domain.AdvisoryResponse{
			Response: ErrorResponse,
			Type:     responseTypeText,
		}
	}

	resp, err := buildResponse(result.(string))
	if err != nil {
		// Raw model text must never leak to the caller; a reply that
		// is not a tip array collapses to the fixed error response.
		g.log.WithError(err).WithField("code", domain.ErrCodeAdvisoryParse).Warn("Advisory reply malformed, returning fallback")
		return &domain.AdvisoryResponse{
			Response: ErrorResponse,
			Type:     responseTypeText,
		}
	}

	if g.cache != nil {
		g.cache.Set(ctx, key, resp)
	}
	return resp
}

// buildResponse strips markdown code fences the model sometimes emits
// despite instructions and parses the tip array. Anything that is not
// a non-empty tip array is a parse failure.
func buildResponse(raw string) (*domain.AdvisoryResponse, error) {
	text := stripCodeFences(raw)

	var tips []domain.AdvisoryTip
	if err := json.Unmarshal([]byte(text), &tips); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAdvisoryParse, err)
	}
	if len(tips) == 0 {
		return nil, fmt.Errorf("%w: empty tip array", domain.ErrAdvisoryParse)
	}

	return &domain.AdvisoryResponse{
		Response: text,
		Type:     responseTypeJSON,
		Tips:     tips,
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
