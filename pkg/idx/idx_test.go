package idx_test

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/instamakaan/makaan/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewStringIsValid(t *testing.T) {
	id := idx.NewString()
	require.Len(t, id, 26)
	require.True(t, idx.Valid(id))
}

func TestValidRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		require.False(t, idx.Valid(s), "input %q", s)
		_, err := idx.Time(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestOrderingFollowsTime(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0))
	b := idx.NewAt(time.Unix(2, 0))
	require.Less(t, a, b)

	// Same millisecond still sorts in creation order.
	at := time.Unix(1_700_000_000, 0)
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = idx.NewAt(at)
	}
	require.True(t, sort.StringsAreSorted(ids))
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1_700_000_000, 0).UTC()

	got, err := idx.Time(idx.NewAt(tm))
	require.NoError(t, err)
	require.WithinDuration(t, tm, got, time.Millisecond)
}

func TestConcurrentUniqueness(t *testing.T) {
	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for range perWorker {
				local = append(local, idx.NewString())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, s := range local {
				seen[s] = struct{}{}
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
}
