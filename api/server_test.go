package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctl "controller/controller"
	"controller/flowtable"
	"controller/topology"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	g := topology.NewGraph()
	g.AddLink("S1", "S2", 1)
	g.AddLink("S1", "S3", 1)
	g.AddLink("S2", "S4", 1)
	g.AddLink("S3", "S4", 1)
	g.AddLink("S1", "S4", 5)
	g.AddLink("H2", "S2", 1)

	synth := flowtable.NewSynthesizer(flowtable.OrderLexicographic, nil)
	c := ctl.New(g, synth, flowtable.Flow{Src: "H2", Dst: "S4"})
	c.InjectFlow("H2", "S4")
	return NewRouter(c)
}

func get(t *testing.T, router *gin.Engine, url string) (*httptest.ResponseRecorder, map[string]interface{}) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(recorder, request)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body), "response must be JSON")
	return recorder, body
}

func TestNodesEndpoint(t *testing.T) {
	router := newTestRouter()
	recorder, body := get(t, router, "/nodes")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.ElementsMatch(t,
		[]interface{}{"H2", "S1", "S2", "S3", "S4"}, body["nodes"])
}

func TestLinksEndpointEmitsEachLinkOnce(t *testing.T) {
	router := newTestRouter()
	recorder, body := get(t, router, "/links")

	assert.Equal(t, http.StatusOK, recorder.Code)
	links := body["links"].([]interface{})
	assert.Len(t, links, 6)
	seen := make(map[string]bool)
	for _, raw := range links {
		link := raw.(map[string]interface{})
		key := link["u"].(string) + "-" + link["v"].(string)
		assert.False(t, seen[key], "duplicate link %s", key)
		seen[key] = true
		assert.Less(t, link["u"].(string), link["v"].(string))
	}
}

func TestTablesEndpointContract(t *testing.T) {
	router := newTestRouter()
	recorder, body := get(t, router, "/tables")
	assert.Equal(t, http.StatusOK, recorder.Code)

	entries := body["S1"].([]interface{})
	var s4 map[string]interface{}
	for _, raw := range entries {
		entry := raw.(map[string]interface{})
		if entry["match_dst"] == "S4" {
			s4 = entry
		}
	}
	require.NotNil(t, s4, "S1 must publish an entry for S4")
	assert.Equal(t, []interface{}{"S2", "S3"}, s4["action"])
	assert.Equal(t, "high", s4["priority"])
	assert.Equal(t, []interface{}{"S3"}, s4["backup"])

	// Entries without a backup omit the field entirely.
	for _, raw := range entries {
		entry := raw.(map[string]interface{})
		if entry["match_dst"] == "S2" {
			_, present := entry["backup"]
			assert.False(t, present, "backup must be omitted when not provisioned")
		}
	}
}

func TestSwitchTableEndpoint(t *testing.T) {
	router := newTestRouter()

	recorder, body := get(t, router, "/tables/S1")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "S1", body["switch"])
	assert.NotEmpty(t, body["entries"])

	recorder, _ = get(t, router, "/tables/S9")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestPathEndpoint(t *testing.T) {
	router := newTestRouter()

	recorder, body := get(t, router, "/path?src=S1&dst=S4")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, body["reachable"])
	path := body["path"].([]interface{})
	assert.Len(t, path, 3, "query must take a two-link route, not the direct weight-5 link")

	recorder, body = get(t, router, "/path?src=S1&dst=NOPE")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, false, body["reachable"])
	_, present := body["path"]
	assert.False(t, present)

	recorder, _ = get(t, router, "/path?src=S1")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
