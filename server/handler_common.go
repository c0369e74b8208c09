package server

import (
	"encoding/json"
	"fed_courier/shared"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const (
	apiKeyHeader      = "X-API-KEY"
	metricsAuthHeader = "Authorization"
	internalErrorStr  = "500 Internal Server Error"
	badRequestStr     = "400 Invalid Request"
	notFoundStr       = "404 Not Found"
	badApiKeyStr      = "401 Missing or Invalid API Key"
	badAuthorization  = "401 Missing or Invalid Authorization"
	tooManyRequests   = "429 Too Many Requests"
	maxBodyBytes      = 1024 * 1024
	defaultPageSize   = 20
	maxPageSize       = 100
)

const apubContentType = "application/activity+json"

// Defines a single HTTP handler (endpoint)
type handlerDef struct {
	method  string
	pattern string
	handler func(http.ResponseWriter, *http.Request)
}

// IHandlerGroup groups together multiple HTTP handler definitions.
type IHandlerGroup interface {
	Prefix() string
	GroupDefs() []handlerDef
	AuthMW() func(next http.Handler) http.Handler
}

func emptyMW(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	})
}

// Returns the JSON serialized object as the response body; handles errors.
func writeJsonResponse(logger shared.ILogger, w http.ResponseWriter, isApub bool, resp interface{}) {
	writeJsonResponseCode(logger, w, isApub, http.StatusOK, resp)
}

func writeJsonResponseCode(logger shared.ILogger, w http.ResponseWriter, isApub bool, code int, resp interface{}) {
	if isApub {
		w.Header().Set("Content-Type", apubContentType)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	writeJsonBody(logger, w, code, resp)
}

// writeJsonBody serializes resp with whatever Content-Type the caller has set.
func writeJsonBody(logger shared.ILogger, w http.ResponseWriter, code int, resp interface{}) {
	var err error
	var respJson []byte
	if respJson, err = json.Marshal(resp); err != nil {
		logger.Warnf("Failed to serialize response: %v\n", err)
		http.Error(w, internalErrorStr, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err = fmt.Fprintln(w, string(respJson)); err != nil {
		logger.Warnf("Failed to write response: %v\n", err)
		return
	}
}

type errorResp struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeErrorResponse(w http.ResponseWriter, msg string, code int) {
	resp := errorResp{msg, code}
	respJson, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	fmt.Fprintln(w, string(respJson))
}

func readBody(logger shared.ILogger, w http.ResponseWriter, r *http.Request) []byte {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warnf("Failed to read request body: %v", err)
		writeErrorResponse(w, badRequestStr, http.StatusBadRequest)
		return nil
	}
	if len(body) == 0 {
		writeErrorResponse(w, "Request body must not be empty", http.StatusBadRequest)
		return nil
	}
	return body
}

func acceptsJson(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "" ||
		strings.Contains(accept, "json") ||
		strings.Contains(accept, "*/*")
}

// getPaging reads the start and count query params; ok is false if either is malformed.
func getPaging(r *http.Request) (start, count int, ok bool) {
	start, count = 0, defaultPageSize
	var err error
	q := r.URL.Query()
	if str := q.Get("start"); str != "" {
		if start, err = strconv.Atoi(str); err != nil || start < 0 {
			return 0, 0, false
		}
	}
	if str := q.Get("count"); str != "" {
		if count, err = strconv.Atoi(str); err != nil || count < 1 {
			return 0, 0, false
		}
	}
	if count > maxPageSize {
		count = maxPageSize
	}
	return start, count, true
}
