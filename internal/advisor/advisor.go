// Package advisor asks an external service for a short tip about the
// current shift. It never touches business state.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// FallbackAdvice is returned whenever the advisory service cannot answer.
const FallbackAdvice = "Sigue así, el servicio es la clave."

type Advisor interface {
	Advise(ctx context.Context, total int64) (string, error)
}

var ErrNoAdvisor = errors.New("advisor no configurado")

type adviceRequest struct {
	Total  int64  `json:"total"`
	Prompt string `json:"prompt"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

// HTTPAdvisor posts the shift total to an external endpoint and expects
// {"advice": "..."} back.
type HTTPAdvisor struct {
	url     string
	timeout time.Duration
}

func NewHTTPAdvisor(url string) *HTTPAdvisor {
	return &HTTPAdvisor{url: url, timeout: 10 * time.Second}
}

func (a *HTTPAdvisor) Advise(ctx context.Context, total int64) (string, error) {
	if a.url == "" {
		return "", ErrNoAdvisor
	}

	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return "", context.DeadlineExceeded
	}

	agent := fiber.Post(a.url).
		Timeout(timeout).
		JSON(adviceRequest{
			Total:  total,
			Prompt: fmt.Sprintf("Analiza una venta de $%d para un bar y da un consejo corto.", total),
		})

	var resp adviceResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("advisor respondió %d", code)
	}
	advice := strings.TrimSpace(resp.Advice)
	if advice == "" {
		return "", errors.New("advisor devolvió un consejo vacío")
	}
	return advice, nil
}

// Advise never fails: any error from a (including a nil advisor) becomes
// FallbackAdvice.
func Advise(ctx context.Context, a Advisor, total int64) string {
	if a == nil {
		return FallbackAdvice
	}
	advice, err := a.Advise(ctx, total)
	if err != nil {
		if !errors.Is(err, ErrNoAdvisor) {
			log.Printf("[WARN] advisor: %v", err)
		}
		return FallbackAdvice
	}
	return advice
}
