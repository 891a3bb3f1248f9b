package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	eventbus "github.com/hanpama/booksgraph/internal/eventbus"
	events "github.com/hanpama/booksgraph/internal/events"
	executor "github.com/hanpama/booksgraph/internal/executor"
	language "github.com/hanpama/booksgraph/internal/language"
	logging "github.com/hanpama/booksgraph/internal/logging"
	reqid "github.com/hanpama/booksgraph/internal/reqid"
	schema "github.com/hanpama/booksgraph/internal/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var prettyJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	IndentionStep:          2,
}.Froze()

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the executor, and writes GraphQL-over-HTTP responses.
type Handler struct {
	exec   *executor.Executor
	opt    Options
	logger *zap.Logger
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// Logger receives handler failures. nil disables logging.
	Logger *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

var errNoQueryType = errors.New("server: schema has no query type")

// New creates a new GraphQL HTTP handler using the given runtime and schema.
// Queries are validated against schema.AST when it is present.
func New(runtime executor.Runtime, schema *schema.Schema, opts ...Option) (*Handler, error) {
	if schema == nil || schema.GetQueryType() == nil {
		return nil, errNoQueryType
	}
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{
		exec:   executor.NewExecutor(runtime, schema),
		opt:    op,
		logger: logging.Named(op.Logger, "server"),
	}, nil
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(reqid.Header))
	r = r.WithContext(ctx)
	rw.Header().Set(reqid.Header, rid)

	w := &statusWriter{ResponseWriter: rw, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: w.status, Bytes: w.bytes, Duration: time.Since(start)})
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		h.writeJSON(w, http.StatusMethodNotAllowed, requestError(errMethodNotAllowedMessage))
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, batch, rerr := parseRequest(r, h.opt.MaxBodyBytes)
	if rerr != nil {
		status := http.StatusBadRequest
		if rerr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeJSON(w, status, executor.ErrorResult(*rerr))
		return
	}

	if batch != nil {
		out := make([]*executor.ExecutionResult, len(batch))
		for i := range batch {
			out[i], _ = h.executeOne(ctx, r.Method, batch[i])
		}
		h.writeJSON(w, http.StatusOK, out)
		return
	}

	res, status := h.executeOne(ctx, r.Method, req)
	h.writeJSON(w, status, res)
}

// executeOne runs a single operation and returns its result with the HTTP
// status a standalone request would get.
func (h *Handler) executeOne(ctx context.Context, method string, req GraphQLRequest) (*executor.ExecutionResult, int) {
	doc, errs := h.load(req.Query)
	if len(errs) > 0 {
		h.publishFinish(ctx, req.Query, req.OperationName, "", errs, 0)
		return executor.ErrorResult(errs...), http.StatusBadRequest
	}

	opDef, err := executor.GetOperation(doc, req.OperationName)
	if err != nil {
		ge := executor.GraphQLError{Message: err.Error()}
		h.publishFinish(ctx, req.Query, req.OperationName, "", []executor.GraphQLError{ge}, 0)
		return executor.ErrorResult(ge), http.StatusBadRequest
	}
	opType := string(opDef.Operation)
	opName := opDef.Name

	if method == http.MethodGet && opDef.Operation != language.Query {
		ge := executor.GraphQLError{Message: "Can only perform a " + opType + " operation from a POST request."}
		h.publishFinish(ctx, req.Query, opName, opType, []executor.GraphQLError{ge}, 0)
		return executor.ErrorResult(ge), http.StatusMethodNotAllowed
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: opName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	h.publishFinish(ctx, req.Query, opName, opType, result.Errors, time.Since(start))
	return result, http.StatusOK
}

// load parses req and validates it when the schema carries its AST.
func (h *Handler) load(query string) (*language.QueryDocument, []executor.GraphQLError) {
	if ast := h.exec.Schema().AST; ast != nil {
		doc, errs := language.LoadQuery(ast, query)
		if len(errs) > 0 {
			return nil, executor.FromLanguageErrors(errs)
		}
		return doc, nil
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		var ge *language.Error
		if errors.As(err, &ge) {
			return nil, executor.FromLanguageErrors(language.ErrorList{ge})
		}
		return nil, []executor.GraphQLError{{Message: err.Error()}}
	}
	return doc, nil
}

func (h *Handler) publishFinish(ctx context.Context, query, opName, opType string, gqlErrs []executor.GraphQLError, d time.Duration) {
	errs := make([]error, len(gqlErrs))
	for i := range gqlErrs {
		errs[i] = gqlErrs[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         query,
		OperationName: opName,
		OperationType: opType,
		Errors:        errs,
		Duration:      d,
	})
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

const (
	errBodyTooLargeMessage     = "body too large"
	errMethodNotAllowedMessage = "method not allowed"
)

func requestError(msg string) *executor.ExecutionResult {
	return executor.ErrorResult(executor.GraphQLError{Message: msg})
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *executor.GraphQLError) {
	fail := func(msg string) (GraphQLRequest, []GraphQLRequest, *executor.GraphQLError) {
		return GraphQLRequest{}, nil, &executor.GraphQLError{Message: msg}
	}

	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return fail("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return fail("invalid 'variables' JSON")
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return fail("unsupported Content-Type")
	}

	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	defer r.Body.Close()
	if err != nil {
		return fail("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return fail(errBodyTooLargeMessage)
	}

	// Try array (batch)
	if len(body) > 0 && body[0] == '[' {
		var arr []GraphQLRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return fail("invalid JSON")
		}
		if len(arr) == 0 {
			return fail("empty batch")
		}
		return GraphQLRequest{}, arr, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fail("invalid JSON")
	}
	if req.Query == "" {
		return fail("missing 'query'")
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	api := json
	if h.opt.Pretty {
		api = prettyJSON
	}
	stream := api.BorrowStream(w)
	defer api.ReturnStream(stream)

	switch v := v.(type) {
	case *executor.ExecutionResult:
		v.WriteJSON(stream)
	case []*executor.ExecutionResult:
		stream.WriteArrayStart()
		for i, res := range v {
			if i > 0 {
				stream.WriteMore()
			}
			res.WriteJSON(stream)
		}
		stream.WriteArrayEnd()
	default:
		stream.WriteVal(v)
	}
	stream.WriteRaw("\n")
	err := stream.Error
	if err == nil {
		err = stream.Flush()
	}
	logging.CheckError(err, h.logger, "Failed writing response", zap.Int("status", status))
}

// statusWriter records what was written for HTTPFinish.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Expose-Headers", reqid.Header)
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	parts := strings.Split(accept, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
