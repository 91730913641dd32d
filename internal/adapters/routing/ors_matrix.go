package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ride-dispatch-service/internal/domain"
	"ride-dispatch-service/internal/platform/obs"
	"ride-dispatch-service/internal/ports"
)

const (
	// Destinations per matrix sub-request, bounded to respect the
	// oracle's request size limits.
	defaultMaxBatch = 25
	// Concurrent sub-requests per matrix build.
	defaultWorkers = 5
)

// ORSMatrixProvider implements MatrixProvider against an
// OpenRouteService-compatible matrix endpoint.
//
// It coordinates:
//   - Location deduplication via quantized coordinate keys
//   - Travel cost caching (only missing pairs hit the oracle)
//   - Size-bounded, concurrency-bounded matrix sub-requests
//   - Retry with exponential backoff per sub-request
//
// Any sub-request that exhausts its retries fails the entire build with
// ErrOracleUnavailable; a partial matrix is never returned.
// The provider is safe for concurrent use.
type ORSMatrixProvider struct {
	session  *http.Client
	apiKey   string
	baseURL  string
	profile  string
	cache    ports.TravelCostCache
	maxBatch int
	workers  int
}

func NewORSMatrixProvider(apiKey string, cache ports.TravelCostCache) (*ORSMatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSMatrixProvider{
		session:  &http.Client{Timeout: 10 * time.Second},
		apiKey:   apiKey,
		baseURL:  "https://api.openrouteservice.org",
		profile:  "driving-car",
		cache:    cache,
		maxBatch: defaultMaxBatch,
		workers:  defaultWorkers,
	}, nil
}

// WithBaseURL points the provider at a different oracle endpoint
// (self-hosted ORS, or a test server).
func (o *ORSMatrixProvider) WithBaseURL(url string) *ORSMatrixProvider {
	o.baseURL = url
	return o
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// BuildMatrix returns the full pairwise travel cost matrix over the given
// locations. Duplicate coordinates collapse onto one matrix row/column.
func (o *ORSMatrixProvider) BuildMatrix(
	ctx context.Context,
	locations []domain.Location,
) (_ *domain.Matrix, err error) {
	defer obs.Time(ctx, "oracle.BuildMatrix")(&err)

	if len(locations) == 0 {
		return nil, errors.New("build matrix: no locations")
	}

	seen := make(map[domain.LocationKey]struct{}, len(locations))
	uniq := make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		k := loc.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, loc)
	}

	n := len(uniq)
	cells := make([][]domain.TravelCost, n)
	for i := range cells {
		cells[i] = make([]domain.TravelCost, n)
	}

	pairs := make([]domain.PairKey, 0, n*n-n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			pairs = append(pairs, domain.PairKey{From: uniq[i].Key(), To: uniq[j].Key()})
		}
	}

	hits := make(map[domain.PairKey]domain.TravelCost)
	if o.cache != nil {
		hits, err = o.cache.GetMany(ctx, pairs)
		if err != nil {
			return nil, fmt.Errorf("build matrix: travel cost cache: %w", err)
		}
	}

	// Group cache misses by source row so each sub-request fetches one
	// origin against a bounded destination batch.
	missing := make(map[int][]int)
	missCount := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			key := domain.PairKey{From: uniq[i].Key(), To: uniq[j].Key()}
			if tc, ok := hits[key]; ok {
				cells[i][j] = tc
				continue
			}
			missing[i] = append(missing[i], j)
			missCount++
		}
	}

	obs.CacheLookups.WithLabelValues("hit").Add(float64(len(pairs) - missCount))
	obs.CacheLookups.WithLabelValues("miss").Add(float64(missCount))

	if missCount == 0 {
		return domain.NewMatrix(uniq, cells)
	}

	coords := make([][]float64, n)
	for i, loc := range uniq {
		coords[i] = loc.CoordsToList()
	}

	// All sub-requests for one matrix must complete or the whole fetch
	// fails; errgroup cancels the siblings on first error.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	var mu sync.Mutex
	fresh := make(map[domain.PairKey]domain.TravelCost, missCount)

	for src, dests := range missing {
		for start := 0; start < len(dests); start += o.maxBatch {
			end := start + o.maxBatch
			if end > len(dests) {
				end = len(dests)
			}
			src, batch := src, dests[start:end]

			g.Go(func() error {
				row, err := o.fetchRow(gctx, coords, src, batch)
				if err != nil {
					obs.OracleRequests.WithLabelValues("error").Inc()
					return fmt.Errorf("fetch row source=%d: %w", src, err)
				}
				obs.OracleRequests.WithLabelValues("ok").Inc()

				mu.Lock()
				for bi, j := range batch {
					cells[src][j] = row[bi]
					fresh[domain.PairKey{From: uniq[src].Key(), To: uniq[j].Key()}] = row[bi]
				}
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build matrix: %v: %w", err, ports.ErrOracleUnavailable)
	}

	if o.cache != nil && len(fresh) > 0 {
		if err := o.cache.PutMany(ctx, fresh); err != nil {
			obs.WithRun(ctx).WithError(err).Warn("travel cost cache write failed")
		}
	}

	return domain.NewMatrix(uniq, cells)
}

// fetchRow retrieves duration and distance from one origin to a batch of
// destinations using the oracle's matrix endpoint. The whole
// request-decode-validate cycle sits inside the retry loop: a malformed
// response is treated the same as a transport failure.
func (o *ORSMatrixProvider) fetchRow(
	ctx context.Context,
	coords [][]float64,
	src int,
	dests []int,
) ([]domain.TravelCost, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	payload, err := json.Marshal(matrixRequest{
		Locations:    coords,
		Sources:      []int{src},
		Destinations: dests,
		Metrics:      []string{"distance", "duration"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	var out []domain.TravelCost
	err = o.withRetry(ctx, func() error {
		req, err := o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}

		resp, err := o.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var mr matrixResponse
		if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
			return fmt.Errorf("decode matrix response: %w", err)
		}

		row, err := rowCosts(mr, len(dests))
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func rowCosts(mr matrixResponse, want int) ([]domain.TravelCost, error) {
	if len(mr.Durations) != 1 || len(mr.Distances) != 1 {
		return nil, fmt.Errorf(
			"expected 1 source row; got durations=%d distances=%d",
			len(mr.Durations), len(mr.Distances),
		)
	}

	durations := mr.Durations[0]
	distances := mr.Distances[0]
	if len(durations) != want || len(distances) != want {
		return nil, fmt.Errorf(
			"row lengths do not match destinations: durations=%d distances=%d want=%d",
			len(durations), len(distances), want,
		)
	}

	out := make([]domain.TravelCost, want)
	for i := 0; i < want; i++ {
		if durations[i] == nil || distances[i] == nil {
			return nil, fmt.Errorf("matrix returned invalid metrics at offset %d", i)
		}

		// ORS returns float metrics; round to nearest integer for domain
		// consistency.
		out[i] = domain.TravelCost{
			DurationSeconds: int(math.Round(*durations[i])),
			DistanceMeters:  int(math.Round(*distances[i])),
		}
	}

	return out, nil
}
