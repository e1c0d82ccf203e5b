package web

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"aprScope/internal/dashboard"
	"aprScope/internal/model"
)

type dashboardBody struct {
	Selection   dashboard.Selection    `json:"selection"`
	Pairs       []dashboard.PairOption `json:"pairs"`
	Model       dashboard.Model        `json:"model"`
	Summary     string                 `json:"summary,omitempty"`
	Pair        *model.PairSnapshot    `json:"pair,omitempty"`
	PairLoading bool                   `json:"pairLoading"`
	PairError   string                 `json:"pairError,omitempty"`
}

type dashboardOutput struct {
	Body dashboardBody
}

func newDashboardBody(snap dashboard.Snapshot) dashboardBody {
	body := dashboardBody{
		Selection:   snap.Selection,
		Pairs:       snap.Pairs,
		Model:       snap.Model,
		Pair:        snap.Pair.Data,
		PairLoading: snap.Pair.Loading,
		PairError:   snap.Pair.ErrorMessage(),
	}
	if snap.Model.Status == dashboard.StatusReady {
		body.Summary = snap.Model.Info.Summary()
	}
	return body
}

func registerDashboardHandlers(api huma.API, s *server) {
	huma.Register(api, huma.Operation{OperationID: "get-dashboard", Method: http.MethodGet, Path: "/api/v1/dashboard", Summary: "Current dashboard selection and view model", Tags: []string{"Dashboard"}},
		func(ctx context.Context, input *struct{}) (*dashboardOutput, error) {
			return &dashboardOutput{Body: newDashboardBody(s.view.Snapshot())}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "update-selection", Method: http.MethodPut, Path: "/api/v1/dashboard/selection", Summary: "Change the selected pair and/or window", Tags: []string{"Dashboard"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Pair   string `json:"pair,omitempty" doc:"Pair contract address from the configured list"`
				Window int    `json:"window,omitempty" doc:"Moving-average window in hours (1, 12 or 24)"`
			}
		}) (*dashboardOutput, error) {
			current := s.view.Snapshot().Selection
			address := input.Body.Pair
			if address == "" {
				address = current.Pair.Address
			}
			window := current.Window
			if input.Body.Window != 0 {
				window = model.Window(input.Body.Window)
			}
			if err := s.view.Select(address, window); err != nil {
				return nil, mapErr(err)
			}
			return &dashboardOutput{Body: newDashboardBody(s.view.Snapshot())}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "refetch-dashboard", Method: http.MethodPost, Path: "/api/v1/dashboard/refetch", Summary: "Re-issue the APR request for the current selection", Tags: []string{"Dashboard"}},
		func(ctx context.Context, input *struct{}) (*dashboardOutput, error) {
			s.view.Refetch()
			return &dashboardOutput{Body: newDashboardBody(s.view.Snapshot())}, nil
		})
}

type healthOutput struct {
	Body struct {
		Healthy bool                `json:"healthy"`
		Loading bool                `json:"loading"`
		Error   string              `json:"error,omitempty"`
		Status  *model.HealthStatus `json:"status,omitempty"`
	}
}

func registerHealthHandlers(api huma.API, s *server) {
	huma.Register(api, huma.Operation{OperationID: "get-health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Latest backend health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			if s.health == nil {
				out.Body.Loading = true
				return out, nil
			}
			st := s.health.State()
			out.Body.Healthy = s.health.IsHealthy()
			out.Body.Loading = st.Loading
			out.Body.Error = st.ErrorMessage()
			out.Body.Status = st.Data
			return out, nil
		})
}
