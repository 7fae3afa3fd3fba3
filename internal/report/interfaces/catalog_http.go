package interfaces

import (
	"encoding/json"
	"net/http"

	report "epias-report/internal/report/domain"
)

type categoryView struct {
	ID       report.CategoryID `json:"id"`
	Label    string            `json:"label"`
	Endpoint string            `json:"endpoint"`
	Prefix   string            `json:"prefix"`
	Key      string            `json:"key"`
	Extra    map[string]any    `json:"extra,omitempty"`
}

// CatalogHandler lists the configured categories on GET /api/v1/categories.
type CatalogHandler struct {
	catalog []report.Category
}

// NewCatalogHandler constructs a handler; an empty catalog falls back to the default one.
func NewCatalogHandler(catalog []report.Category) *CatalogHandler {
	if len(catalog) == 0 {
		catalog = report.DefaultCatalog()
	}
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	views := make([]categoryView, 0, len(h.catalog))
	for _, cat := range h.catalog {
		key := "date"
		if cat.Key == report.KeyContract {
			key = "contract"
		}
		views = append(views, categoryView{
			ID:       cat.ID,
			Label:    cat.Label,
			Endpoint: cat.Endpoint,
			Prefix:   cat.Prefix,
			Key:      key,
			Extra:    cat.Extra,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"categories": views})
}
