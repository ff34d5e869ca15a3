package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/askdata/askdata/internal/ask"
	"github.com/askdata/askdata/internal/nl2sql"
	"github.com/askdata/askdata/internal/query"
	"github.com/askdata/askdata/internal/result"
)

const maxAskBodyBytes = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

// failureBody is the only error shape /ask produces. FailedSQL is present
// once a statement had been generated.
type failureBody struct {
	Error     string `json:"error"`
	FailedSQL string `json:"sql_que_falhou,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req askRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxAskBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, failureBody{Error: "invalid request body: " + err.Error()})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, failureBody{Error: "question is required"})
		return
	}
	if deps.Asker == nil {
		writeJSON(w, http.StatusInternalServerError, failureBody{Error: "ask pipeline is not configured"})
		return
	}

	rows, err := deps.Asker.Ask(r.Context(), question)
	if err != nil {
		status, body := failureResponse(err)
		writeJSON(w, status, body)
		return
	}
	if rows == nil {
		rows = []*result.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func failureResponse(err error) (int, failureBody) {
	body := failureBody{Error: err.Error()}

	var askErr *ask.Error
	if !errors.As(err, &askErr) {
		return http.StatusInternalServerError, body
	}
	body.FailedSQL = askErr.SQL

	switch askErr.Stage {
	case ask.StageConfiguration:
		return http.StatusInternalServerError, body
	case ask.StageGeneration:
		var genErr *nl2sql.GenerationError
		if errors.As(err, &genErr) && genErr.Timeout() {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusBadGateway, body
	case ask.StageExecution:
		var execErr *query.ExecutionError
		if errors.As(err, &execErr) && execErr.Timeout() {
			return http.StatusGatewayTimeout, body
		}
		return http.StatusInternalServerError, body
	default:
		return http.StatusInternalServerError, body
	}
}
