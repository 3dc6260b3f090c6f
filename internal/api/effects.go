package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ledring/internal/api/models"
	"github.com/smazurov/ledring/internal/command"
	"github.com/smazurov/ledring/internal/led"
)

// registerEffectRoutes registers the LED ring control endpoints.
func (s *Server) registerEffectRoutes() {
	if s.options.Controller == nil {
		s.logger.Debug("LED controller not available, skipping effect routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-effects",
		Method:      http.MethodGet,
		Path:        "/api/effects",
		Summary:     "List Effects",
		Description: "Effects accepted by the ring and the parameterless built-in patterns",
		Tags:        []string{"effects"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.EffectsResponse, error) {
		return &models.EffectsResponse{
			Body: models.EffectsData{
				Effects:  s.options.Controller.Available(),
				Patterns: s.options.Controller.Patterns(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-effect",
		Method:      http.MethodPost,
		Path:        "/api/effects",
		Summary:     "Set Effect",
		Description: "Replace whatever runs on the ring with the requested effect. " +
			"A pulse keeps retransmitting until another effect is set.",
		Tags:     []string{"effects"},
		Errors:   []int{400, 401, 422},
		Security: withAuth(),
	}, func(ctx context.Context, input *models.EffectRequest) (*models.ActionResponse, error) {
		if err := s.options.Controller.Set(input.Body); err != nil {
			return nil, effectError(err)
		}
		return &models.ActionResponse{Body: models.ActionData{Status: "ok", Effect: input.Body.Effect}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "send-command",
		Method:      http.MethodPost,
		Path:        "/api/commands",
		Summary:     "Send Raw Command",
		Description: "Send a wire command such as rgb:255,0,0 or pulse:0,0,255,2",
		Tags:        []string{"effects"},
		Errors:      []int{400, 401, 422},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.CommandRequest) (*models.ActionResponse, error) {
		req := led.Request{Effect: led.EffectRaw, Command: input.Body.Command}
		if err := s.options.Controller.Set(req); err != nil {
			return nil, effectError(err)
		}
		return &models.ActionResponse{Body: models.ActionData{Status: "ok", Command: input.Body.Command}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop",
		Method:      http.MethodPost,
		Path:        "/api/stop",
		Summary:     "Stop",
		Description: "Stop any effect, including a running pulse",
		Tags:        []string{"effects"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ActionResponse, error) {
		if err := s.options.Controller.Set(led.Request{Effect: led.EffectStop}); err != nil {
			return nil, huma.Error500InternalServerError("Failed to stop", err)
		}
		return &models.ActionResponse{Body: models.ActionData{Status: "ok", Command: command.Stop}}, nil
	})

	s.logger.Info("Effect routes registered")
}

// effectError maps controller errors onto HTTP status codes.
func effectError(err error) error {
	switch {
	case errors.Is(err, led.ErrUnsupportedEffect):
		return huma.Error400BadRequest("Unsupported effect", err)
	case errors.Is(err, led.ErrInvalidRequest), errors.Is(err, command.ErrInvalidPulse),
		errors.Is(err, command.ErrInvalidColor), errors.Is(err, command.ErrUnknownCommand):
		return huma.Error422UnprocessableEntity("Invalid effect parameters", err)
	default:
		return huma.Error500InternalServerError("Failed to apply effect", err)
	}
}
