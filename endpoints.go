package posview

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/posview/classify"
	"github.com/hazyhaar/posview/kit"
	"github.com/hazyhaar/posview/viewmode"
)

type modeRequest struct {
	Mode string `json:"mode"`
}

type emptyRequest struct{}

// ModeResponse answers the mode endpoints.
type ModeResponse struct {
	Mode   viewmode.Mode `json:"mode"`
	Active bool          `json:"active"`
}

// Endpoints are the session operations shared by the HTTP and MCP surfaces.
type Endpoints struct {
	GetMode kit.Endpoint
	SetMode kit.Endpoint
	Toggle  kit.Endpoint
	Status  kit.Endpoint
	Reapply kit.Endpoint
	Inspect kit.Endpoint
}

// MakeEndpoints wraps s in endpoints with panic recovery and call logging.
func MakeEndpoints(s *Session, logger *slog.Logger) Endpoints {
	if logger == nil {
		logger = slog.Default()
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Recover(), kit.Logging(logger, name))(ep)
	}
	return Endpoints{
		GetMode: wrap("get_mode", func(ctx context.Context, _ any) (any, error) {
			st := s.Status()
			return ModeResponse{Mode: st.Mode, Active: st.Active}, nil
		}),
		SetMode: wrap("set_mode", func(ctx context.Context, req any) (any, error) {
			m, err := viewmode.Parse(req.(*modeRequest).Mode)
			if err != nil {
				return nil, err
			}
			st, err := s.SetMode(ctx, m)
			if err != nil {
				return nil, err
			}
			return ModeResponse{Mode: st.Mode, Active: st.Active}, nil
		}),
		Toggle: wrap("toggle_mode", func(ctx context.Context, _ any) (any, error) {
			st, err := s.Toggle(ctx)
			if err != nil {
				return nil, err
			}
			return ModeResponse{Mode: st.Mode, Active: st.Active}, nil
		}),
		Status: wrap("status", func(context.Context, any) (any, error) {
			return s.Status(), nil
		}),
		Reapply: wrap("reapply", func(ctx context.Context, _ any) (any, error) {
			return s.Reapply(ctx)
		}),
		Inspect: wrap("inspect", func(ctx context.Context, _ any) (any, error) {
			return s.Inspect(ctx)
		}),
	}
}

// Inspect classifies the current page without changing it.
func (s *Session) Inspect(ctx context.Context) (classify.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	doc, err := s.page.Snapshot(ctx)
	if err != nil {
		return classify.Summary{}, err
	}
	return classify.Summarize(s.ctrl.Classify(doc), classify.ScoreCandidates(doc, s.ctrl.Thresholds())), nil
}
