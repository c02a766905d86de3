package harmonize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records the last request body and answers with a fixed reply.
type fakeService struct {
	status int
	reply  string
	path   string
	body   map[string]any
}

func (f *fakeService) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.path = r.URL.Path
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		f.body = map[string]any{}
		require.NoError(t, json.Unmarshal(raw, &f.body))
		w.Header().Set("Content-Type", "application/json")
		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.reply)
	}
}

func newTestClient(t *testing.T, f *fakeService) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithTimeout(5*time.Second))
	require.NoError(t, err)
	return c
}

func reply(t *testing.T, field, value string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{field: value})
	require.NoError(t, err)
	return string(b)
}

// =============================================================================
// Payload encoding
// =============================================================================

func TestNewTransformRequest_Encoding(t *testing.T) {
	raw := `{"x":1}`

	canonical := NewTransformRequest(raw, TypeIFRSToEFRAG)
	assert.Equal(t, `"{\"x\":1}"`, canonical.Data, "canonical payload is a JSON string literal")

	freeForm := NewTransformRequest(raw, TypeCityEmissions)
	assert.Equal(t, raw, freeForm.Data, "free-form payload is verbatim")

	custom := NewTransformRequest("a,b\n1,2", TransformType("my_transform"))
	assert.Equal(t, "a,b\n1,2", custom.Data)
}

func TestClient_Transform_CanonicalPayloadOnTheWire(t *testing.T) {
	f := &fakeService{reply: reply(t, "data", `{"E1":[{"v":2000}]}`)}
	c := newTestClient(t, f)

	res, err := c.Transform(context.Background(), `{"x":1}`, TypeIFRSToEFRAG)
	require.NoError(t, err)

	assert.Equal(t, "/transform", f.path)
	assert.Equal(t, `"{\"x\":1}"`, f.body["data"], "data field holds the quoted, escaped input")
	assert.Equal(t, "transform_json1", f.body["transform_type"])

	assert.True(t, res.HasDocument)
	assert.Equal(t, "{\n  \"E1\": [\n    {\n      \"v\": 2000\n    }\n  ]\n}", res.Document)
	assert.True(t, res.Table.Empty(), "a JSON document is not delimited text")
}

func TestClient_Transform_FreeForm(t *testing.T) {
	f := &fakeService{reply: reply(t, "data", "City,Year,Emissions\nRio de Janeiro,2015,0.0001\n")}
	c := newTestClient(t, f)

	input := "City,Date of upload\n\"Rio de Janeiro\",\"14/07/1991\""
	res, err := c.Transform(context.Background(), input, TypeCityEmissions)
	require.NoError(t, err)

	assert.Equal(t, input, f.body["data"], "free-form payload is sent verbatim")
	assert.False(t, res.HasDocument)
	assert.Equal(t, []string{"City", "Year", "Emissions"}, res.Table.Header)
	assert.Equal(t, "Rio de Janeiro", res.Table.Value(0, "City"))
}

func TestClient_Transform_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		ttype   TransformType
		check   func(t *testing.T, err error)
	}{
		{
			name:   "non-2xx",
			status: http.StatusInternalServerError,
			reply:  `boom`,
			ttype:  TypeIFRSToEFRAG,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
				assert.Equal(t, "boom", se.Body)
			},
		},
		{
			name:  "error body",
			reply: `{"error": "Invalid transform type"}`,
			ttype: TransformType("nope"),
			check: func(t *testing.T, err error) {
				var se *ServiceError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "Invalid transform type", se.Message)
			},
		},
		{
			name:  "not json",
			reply: `<html>`,
			ttype: TypeCityEmissions,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDecode)
			},
		},
		{
			name:  "data is not a string",
			reply: `{"data": {"a": 1}}`,
			ttype: TypeIFRSToEFRAG,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDecode)
			},
		},
		{
			name:  "canonical data is not a document",
			reply: `{"data": "'greenhouseGasEmissions'"}`,
			ttype: TypeEFRAGToIFRS,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDecode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeService{status: tt.status, reply: tt.reply})
			_, err := c.Transform(context.Background(), "a,b\n1,2", tt.ttype)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_Transform_HTMLErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<!doctype html>\n<html><head><title>500 Internal Server Error</title></head>"+
			"<body><h1>Internal Server Error</h1><p>The server encountered an internal error.</p></body></html>")
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Transform(context.Background(), "a,b\n1,2", TypeCityEmissions)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Body, "Internal Server Error")
	assert.Contains(t, se.Body, "The server encountered an internal error.")
	assert.NotContains(t, se.Body, "<h1>")
	assert.NotContains(t, se.Body, "<p>")
}

func TestClient_Transform_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)

	_, err = c.Transform(context.Background(), "a,b\n1,2", TypeCityEmissions)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
}

func TestClient_Generate(t *testing.T) {
	f := &fakeService{reply: reply(t, "message", "Here:\n```python\nprint(1)\n```\n")}
	c := newTestClient(t, f)

	msg, err := c.Generate(context.Background(), "Data Schema A:\n\n{}")
	require.NoError(t, err)

	assert.Equal(t, "/newtransformation", f.path)
	assert.Equal(t, "Data Schema A:\n\n{}", f.body["newTransformation"])
	assert.Contains(t, msg, "print(1)")
}

func TestClient_Generate_MissingMessage(t *testing.T) {
	c := newTestClient(t, &fakeService{reply: `{}`})

	_, err := c.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrDecode)
}

// =============================================================================
// Configuration
// =============================================================================

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: "http://localhost:5000"},
		{in: "https://harmonize.example.org/api"},
		{in: "", wantErr: true},
		{in: "localhost:5000", wantErr: true},
		{in: "ftp://example.org", wantErr: true},
		{in: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := NewClient(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, c.BaseURL())
		})
	}
}

func TestClient_BasePathIsKept(t *testing.T) {
	f := &fakeService{reply: reply(t, "message", "ok")}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/api")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "/api/newtransformation", f.path)
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	status, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status, "any answer counts as reachable")

	srv.Close()
	_, err = c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}
