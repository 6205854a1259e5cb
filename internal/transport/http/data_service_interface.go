package http

import (
	"context"
	"io"

	"sharescope/internal/dataset"
	"sharescope/internal/services"
	"sharescope/pkg/contracts/domain"
)

// DataServiceInterface defines the data operations the handlers depend on.
// Satisfied by services.DataService; narrowed for handler tests.
type DataServiceInterface interface {
	FilterOptions(ctx context.Context) (*services.FilterOptions, error)
	Dashboard(ctx context.Context, req services.DashboardRequest) (*services.DashboardResponse, error)
	ReplaceFromUpload(ctx context.Context, filename string, r io.Reader, size int64) (*domain.RecordSet, error)
	Export(ctx context.Context, w io.Writer, sel dataset.Selection) (int, error)
}

// RefreshBroadcaster notifies connected dashboards that the dataset changed.
// Satisfied by websocket.Hub.
type RefreshBroadcaster interface {
	BroadcastRefresh(source string, records int)
}
