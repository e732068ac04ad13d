package engagement

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"echofm/apperr"
	"echofm/model"
	"echofm/repository"
)

// In-memory repository doubles. They honor the same contracts the MySQL
// implementations do, including (nil, nil) for absent tracks and
// duplicate-absorbing favorite inserts.

type fakeTrackRepo struct {
	mu     sync.Mutex
	tracks map[int64]*model.Track
	nextID int64

	incrementErr error
	incremented  []int64
}

func newFakeTrackRepo(tracks ...*model.Track) *fakeTrackRepo {
	r := &fakeTrackRepo{tracks: make(map[int64]*model.Track)}
	for _, tr := range tracks {
		r.tracks[tr.ID] = tr
		if tr.ID > r.nextID {
			r.nextID = tr.ID
		}
	}
	return r
}

func (r *fakeTrackRepo) CreateTrack(ctx context.Context, track *model.Track) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *track
	cp.ID = r.nextID
	r.tracks[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeTrackRepo) GetTrackByID(ctx context.Context, id int64) (*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	track, ok := r.tracks[id]
	if !ok {
		return nil, nil
	}
	cp := *track
	return &cp, nil
}

func (r *fakeTrackRepo) ListActiveTracks(ctx context.Context, limit, offset int) ([]*model.Track, error) {
	return r.TrendingTracks(ctx, limit, 0, 0)
}

func (r *fakeTrackRepo) DeactivateTrack(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if track, ok := r.tracks[id]; ok {
		track.IsActive = false
	}
	return nil
}

func (r *fakeTrackRepo) SearchTracks(ctx context.Context, query string) ([]*model.Track, error) {
	return []*model.Track{}, nil
}

func (r *fakeTrackRepo) TrendingTracks(ctx context.Context, limit, playsWeight, downloadsWeight int) ([]*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		return []*model.Track{}, nil
	}
	score := func(t *model.Track) int64 {
		return t.PlaysCount*int64(playsWeight) + t.DownloadsCount*int64(downloadsWeight)
	}
	out := make([]*model.Track, 0, len(r.tracks))
	for _, t := range r.tracks {
		if t.IsActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if score(out[i]) != score(out[j]) {
			return score(out[i]) > score(out[j])
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTrackRepo) IncrementPlays(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return r.incrementErr
	}
	r.incremented = append(r.incremented, id)
	if track, ok := r.tracks[id]; ok {
		track.PlaysCount++
	}
	return nil
}

type recordedPlay struct {
	trackID  int64
	userID   *int64
	playedAt time.Time
}

type fakeEngagementRepo struct {
	mu         sync.Mutex
	playEvents []recordedPlay
	insertErr  error

	downloadFileURL string
	downloadTitle   string
	downloadErr     error
	downloadCount   int

	counters       map[int64]model.TrackCounters
	playCounts     map[int64]int64
	playsByDay     map[string]int64
	downloadsByDay map[string]int64
	userPlays      int64
	userDownloads  int64
}

func newFakeEngagementRepo() *fakeEngagementRepo {
	return &fakeEngagementRepo{
		counters:       make(map[int64]model.TrackCounters),
		playCounts:     make(map[int64]int64),
		playsByDay:     make(map[string]int64),
		downloadsByDay: make(map[string]int64),
	}
}

func (r *fakeEngagementRepo) InsertPlayEvent(ctx context.Context, trackID int64, userID *int64, playedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.playEvents = append(r.playEvents, recordedPlay{trackID: trackID, userID: userID, playedAt: playedAt})
	return nil
}

func (r *fakeEngagementRepo) RecordDownload(ctx context.Context, trackID, userID int64, downloadedAt time.Time) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.downloadErr != nil {
		return "", "", r.downloadErr
	}
	r.downloadCount++
	return r.downloadFileURL, r.downloadTitle, nil
}

func (r *fakeEngagementRepo) GetCounters(ctx context.Context, trackID int64) (*model.TrackCounters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counters, ok := r.counters[trackID]
	if !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "track %d not found", trackID)
	}
	return &counters, nil
}

func (r *fakeEngagementRepo) CountPlayEvents(ctx context.Context, trackID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playCounts[trackID], nil
}

func (r *fakeEngagementRepo) PlaysByDay(ctx context.Context, scope repository.ActivityScope, from, to time.Time) (map[string]int64, error) {
	return r.playsByDay, nil
}

func (r *fakeEngagementRepo) DownloadsByDay(ctx context.Context, scope repository.ActivityScope, from, to time.Time) (map[string]int64, error) {
	return r.downloadsByDay, nil
}

func (r *fakeEngagementRepo) UserTotals(ctx context.Context, userID int64) (int64, int64, error) {
	return r.userPlays, r.userDownloads, nil
}

type favKey struct {
	userID, trackID int64
}

type fakeFavoriteRepo struct {
	mu   sync.Mutex
	rows map[favKey]struct{}
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{rows: make(map[favKey]struct{})}
}

func (r *fakeFavoriteRepo) IsFavorite(ctx context.Context, userID, trackID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[favKey{userID, trackID}]
	return ok, nil
}

func (r *fakeFavoriteRepo) Insert(ctx context.Context, userID, trackID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := favKey{userID, trackID}
	if _, ok := r.rows[key]; ok {
		return false, nil
	}
	r.rows[key] = struct{}{}
	return true, nil
}

func (r *fakeFavoriteRepo) Delete(ctx context.Context, userID, trackID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := favKey{userID, trackID}
	if _, ok := r.rows[key]; !ok {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func (r *fakeFavoriteRepo) CountByTrack(ctx context.Context, trackID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key := range r.rows {
		if key.trackID == trackID {
			n++
		}
	}
	return n, nil
}

type fakePlaylistRepo struct {
	memberships map[int64]int64
}

func (r *fakePlaylistRepo) SearchPlaylists(ctx context.Context, query string) ([]*model.Playlist, error) {
	return []*model.Playlist{}, nil
}

func (r *fakePlaylistRepo) CountContainingTrack(ctx context.Context, trackID int64) (int64, error) {
	return r.memberships[trackID], nil
}

type fakeAssetStore struct {
	presignErr error
	missing    bool
	statErr    error
	calls      int
}

func (s *fakeAssetStore) PresignDownload(ctx context.Context, object, filename string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.calls++
	return fmt.Sprintf("https://assets.test/%s?filename=%s", object, filename), nil
}

func (s *fakeAssetStore) StatObject(ctx context.Context, object string) (bool, error) {
	if s.statErr != nil {
		return false, s.statErr
	}
	return !s.missing, nil
}

func newTestService(tracks *fakeTrackRepo, events *fakeEngagementRepo, favorites *fakeFavoriteRepo, assets *fakeAssetStore) *Service {
	return NewService(tracks, events, favorites, &fakePlaylistRepo{memberships: make(map[int64]int64)}, assets, nil)
}
