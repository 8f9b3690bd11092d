package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"fertpulse/internal/aggregation"
	"fertpulse/internal/services"
)

// searchPrefix marks per-column text search parameters, e.g. search_state=bih.
const searchPrefix = "search_"

// Top products order values.
const (
	orderAsc  = "asc"
	orderDesc = "desc"
)

func queryValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// parseTableQuery reads the table filters, sort and search_<field>
// parameters. Unknown search columns are kept so validation can reject them.
func parseTableQuery(r *http.Request) services.TableQuery {
	q := services.TableQuery{
		Year:      queryValue(r, "year"),
		Month:     queryValue(r, "month"),
		State:     queryValue(r, "state"),
		Sort:      queryValue(r, "sort"),
		Direction: queryValue(r, "direction"),
	}

	for name, values := range r.URL.Query() {
		if !strings.HasPrefix(name, searchPrefix) || len(values) == 0 {
			continue
		}
		text := strings.TrimSpace(values[0])
		if text == "" {
			continue
		}
		if q.Search == nil {
			q.Search = make(map[aggregation.Field]string)
		}
		q.Search[aggregation.Field(strings.TrimPrefix(name, searchPrefix))] = text
	}
	return q
}

// successResponse writes the standard success envelope.
func successResponse(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	})
}
