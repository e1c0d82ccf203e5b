package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aprScope/internal/api"
	"aprScope/internal/model"
)

const testPair = "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc"

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type requestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *requestLog) add(uri string) {
	l.mu.Lock()
	l.uris = append(l.uris, uri)
	l.mu.Unlock()
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.uris...)
}

func newBackend(t *testing.T, log *requestLog, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.RequestURI())
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL)
}

func TestAPRQueryWindowChange(t *testing.T) {
	log := &requestLog{}
	client := newBackend(t, log, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"timestamp":"2024-01-01T00:00:00Z","apr":10,"windowHours":` + r.URL.Query().Get("window") + `}]}`))
	})

	q := NewAPRQuery(context.Background(), client, nil)
	defer q.Close()

	q.SetParams(APRParams{Address: testPair, Window: model.Window24h})
	s, err := q.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Len(t, s.Data, 1)
	require.Equal(t, 24, s.Data[0].WindowHours)

	q.SetParams(APRParams{Address: testPair, Window: model.Window1h})
	require.True(t, q.State().Loading)

	s, err = q.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, 1, s.Data[0].WindowHours)

	uris := log.all()
	require.Equal(t, "/api/pairs/"+testPair+"/apr?window=1", uris[len(uris)-1])
}

func TestAPRQueryErrorStates(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "http", status: http.StatusInternalServerError, body: `{}`, message: "HTTP error! status: 500"},
		{name: "unsuccessful", status: http.StatusOK, body: `{"success":false,"data":[],"message":"nope"}`, message: "API returned unsuccessful response"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newBackend(t, &requestLog{}, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			q := NewAPRQuery(context.Background(), client, nil)
			defer q.Close()

			q.SetParams(APRParams{Address: testPair, Window: model.Window24h})
			s, err := q.Wait(waitCtx(t))
			require.NoError(t, err)
			require.False(t, s.Loading)
			require.Empty(t, s.Data)
			require.Equal(t, tc.message, s.ErrorMessage())
		})
	}
}

func TestPairQueryRequiresAddress(t *testing.T) {
	log := &requestLog{}
	client := newBackend(t, log, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"pairAddress":"` + testPair + `","timestamp":"2024-01-01T00:00:00Z","reserveUSD":1,"volumeUSD":2}}`))
	})

	q := NewPairQuery(context.Background(), client, nil)
	defer q.Close()

	q.SetParams(PairParams{})
	q.Refetch()
	require.True(t, q.State().Loading)
	require.Empty(t, log.all())

	q.SetParams(PairParams{Address: testPair})
	s, err := q.Wait(waitCtx(t))
	require.NoError(t, err)
	require.Equal(t, 2.0, s.Data.VolumeUSD)
	require.Equal(t, []string{"/api/pairs/" + testPair + "/latest"}, log.all())
}

func TestHistoryQueryMeta(t *testing.T) {
	log := &requestLog{}
	client := newBackend(t, log, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[],"meta":{"total":0,"limit":5,"startDate":"2024-01-01"}}`))
	})

	q := NewHistoryQuery(context.Background(), client, nil)
	defer q.Close()

	q.SetParams(HistoryParams{Address: testPair, StartDate: "2024-01-01", Limit: 5})
	s, err := q.Wait(waitCtx(t))
	require.NoError(t, err)
	require.NotNil(t, s.Meta)
	require.Equal(t, 5, s.Meta.Limit)
	require.Equal(t, "2024-01-01", s.Meta.StartDate)
	require.Equal(t, []string{"/api/pairs/" + testPair + "?startDate=2024-01-01&limit=5"}, log.all())
}
