package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRankClient_GetRank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var fids []int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fids))
		require.Equal(t, []int64{99}, fids)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[{"fid":99,"rank":1234,"score":87.5,"percentile":99.1}]}`))
	}))
	defer server.Close()

	client := NewOpenRankClientWithURL(server.URL)
	res, err := client.GetRank(context.Background(), 99)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, int64(1234), res.Rank)
	assert.Equal(t, 87.5, res.Score)
}

func TestOpenRankClient_AbsentFromGraph(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := NewOpenRankClientWithURL(server.URL)
	res, err := client.GetRank(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, res, "empty result means not in graph, not an error")
}

func TestOpenRankClient_ZeroRankTreatedAsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[{"fid":99,"score":1.0}]}`))
	}))
	defer server.Close()

	client := NewOpenRankClientWithURL(server.URL)
	res, err := client.GetRank(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, res, "missing/zero rank means absent, not rank-0-is-best")
}

func TestOpenRankClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOpenRankClientWithURL(server.URL)
	res, err := client.GetRank(context.Background(), 99)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestOpenRankClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := NewOpenRankClientWithURL(server.URL)
	client.client.SetTimeout(50 * time.Millisecond)

	res, err := client.GetRank(context.Background(), 99)
	assert.Error(t, err)
	assert.Nil(t, res)
}
