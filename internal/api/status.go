package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ledring/internal/api/models"
)

func (s *Server) registerStatusRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Serial connection state and the running pulse, if any",
		Tags:        []string{"system"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.status()}, nil
	})
}

func (s *Server) status() models.StatusData {
	data := models.StatusData{
		Connection: models.ConnectionData{State: "disconnected"},
		DryRun:     s.options.DryRun,
	}

	if s.options.Link != nil {
		st := s.options.Link.Status()
		data.Connection = models.ConnectionData{
			State:     string(st.State),
			Port:      st.Port,
			BaudRate:  st.BaudRate,
			Attempts:  st.Attempts,
			LastError: st.LastError,
		}
		if !st.ConnectedSince.IsZero() {
			data.Connection.ConnectedSince = st.ConnectedSince.Format(time.RFC3339)
		}
	}

	if s.options.Pulse != nil {
		st := s.options.Pulse.Status()
		data.Pulse = models.PulseData{Active: st.Active, Generation: st.Generation}
		if st.Active {
			sess := st.Session
			data.Pulse.Command = sess.Command
			data.Pulse.Speed = sess.Speed
			data.Pulse.DelayMs = sess.Delay.Milliseconds()
			data.Pulse.PeriodMs = sess.Period.Milliseconds()
			data.Pulse.Sends = sess.Sends
			data.Pulse.StartedAt = sess.StartedAt.Format(time.RFC3339)
		}
	}

	return data
}
