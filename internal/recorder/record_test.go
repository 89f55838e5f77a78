package recorder

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordBody(t *testing.T) {
	rec := Record{
		ID: "r1",
		Request: RequestRecord{
			Method: http.MethodPost,
			Header: http.Header{"Content-Type": {"application/json"}},
			Body:   []byte(`{"q":1}`),
		},
	}

	body, header, ok := rec.Body(TargetRequest)
	assert.True(t, ok)
	assert.Equal(t, `{"q":1}`, string(body))
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	_, _, ok = rec.Body(TargetResponse)
	assert.False(t, ok, "pending record has no response body")

	rec.Response = &ResponseRecord{StatusCode: 200, Body: []byte(`[]`)}
	body, _, ok = rec.Body(TargetResponse)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(body))

	_, _, ok = rec.Body("trailer")
	assert.False(t, ok)
}
