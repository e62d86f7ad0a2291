package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/homefeed/go-listing-backend/internal/domain"
	"github.com/homefeed/go-listing-backend/internal/services"
)

func TestReloadProvider_Success(t *testing.T) {
	reload := &fakeReload{res: &services.ReloadResult{
		Provider: "acme",
		Status:   domain.ReloadSuccess,
		Inserted: 12,
		Updated:  3,
		Retired:  1,
		Duration: 1500 * time.Millisecond,
	}}
	r := newTestRouter(New(&fakeSearch{}, &fakeStore{}, reload, &fakeProviders{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/providers/acme/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if reload.gotName != "acme" {
		t.Fatalf("provider name not passed: %q", reload.gotName)
	}

	var resp ReloadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != domain.ReloadSuccess || resp.Inserted != 12 || resp.Retired != 1 || resp.DurationMS != 1500 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestReloadProvider_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"unknown provider", services.ErrProviderNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"busy", services.ErrReloadBusy, http.StatusConflict, ErrCodeConflict},
		{"fetch failed", services.ErrFetchFailed, http.StatusBadGateway, ErrCodeReloadFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reload := &fakeReload{err: tc.err}
			r := newTestRouter(New(&fakeSearch{}, &fakeStore{}, reload, &fakeProviders{}))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/providers/acme/reload", nil))
			if w.Code != tc.want {
				t.Fatalf("status=%d; want %d", w.Code, tc.want)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Code != tc.code {
				t.Fatalf("code=%q; want %q", body.Code, tc.code)
			}
		})
	}
}

func TestReloadAll_ReportsEveryProvider(t *testing.T) {
	reload := &fakeReload{all: []services.ReloadResult{
		{Provider: "acme", Status: domain.ReloadSuccess, Inserted: 2},
		{Provider: "beta", Status: domain.ReloadFailed},
	}}
	r := newTestRouter(New(&fakeSearch{}, &fakeStore{}, reload, &fakeProviders{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ReloadAllResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].Provider != "acme" || resp.Results[1].Status != domain.ReloadFailed {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestListProviders_And_GetProvider(t *testing.T) {
	providers := &fakeProviders{
		list:   []services.ProviderStatus{{Name: "acme"}, {Name: "beta", Excluded: true}},
		status: &services.ProviderStatus{Name: "acme", ActiveListings: 5},
	}
	r := newTestRouter(New(&fakeSearch{}, &fakeStore{}, &fakeReload{}, providers))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var listResp ListProvidersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(listResp.Providers) != 2 || !listResp.Providers[1].Excluded {
		t.Fatalf("unexpected list: %+v", listResp.Providers)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/acme", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var st services.ProviderStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if st.Name != "acme" || st.ActiveListings != 5 {
		t.Fatalf("unexpected status: %+v", st)
	}

	providers.status, providers.err = nil, services.ErrProviderNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d; want 404", w.Code)
	}
}
