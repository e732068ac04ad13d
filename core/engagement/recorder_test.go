package engagement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echofm/apperr"
	"echofm/model"
)

func activeTrack(id int64) *model.Track {
	return &model.Track{ID: id, Title: "Track", FileURL: "audio/track.mp3", IsActive: true, CreatedAt: time.Now()}
}

func TestRecordPlayAppendsEvent(t *testing.T) {
	tracks := newFakeTrackRepo(activeTrack(1))
	events := newFakeEngagementRepo()
	svc := newTestService(tracks, events, newFakeFavoriteRepo(), &fakeAssetStore{})

	userID := int64(42)
	require.NoError(t, svc.RecordPlay(context.Background(), 1, &userID))

	require.Len(t, events.playEvents, 1)
	require.NotNil(t, events.playEvents[0].userID)
	assert.Equal(t, int64(42), *events.playEvents[0].userID)
	assert.Equal(t, []int64{1}, tracks.incremented)
}

func TestRecordPlayAnonymous(t *testing.T) {
	events := newFakeEngagementRepo()
	svc := newTestService(newFakeTrackRepo(activeTrack(1)), events, newFakeFavoriteRepo(), &fakeAssetStore{})

	require.NoError(t, svc.RecordPlay(context.Background(), 1, nil))
	require.Len(t, events.playEvents, 1)
	assert.Nil(t, events.playEvents[0].userID)
}

func TestRecordPlayUnknownTrack(t *testing.T) {
	events := newFakeEngagementRepo()
	svc := newTestService(newFakeTrackRepo(), events, newFakeFavoriteRepo(), &fakeAssetStore{})

	err := svc.RecordPlay(context.Background(), 99, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Empty(t, events.playEvents)
}

func TestRecordPlayInactiveTrack(t *testing.T) {
	track := activeTrack(1)
	track.IsActive = false
	svc := newTestService(newFakeTrackRepo(track), newFakeEngagementRepo(), newFakeFavoriteRepo(), &fakeAssetStore{})

	err := svc.RecordPlay(context.Background(), 1, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRecordPlaySurvivesCounterFailure(t *testing.T) {
	tracks := newFakeTrackRepo(activeTrack(1))
	tracks.incrementErr = errors.New("deadlock detected")
	events := newFakeEngagementRepo()
	svc := newTestService(tracks, events, newFakeFavoriteRepo(), &fakeAssetStore{})

	// The event append is the primary effect; the counter bump is advisory.
	require.NoError(t, svc.RecordPlay(context.Background(), 1, nil))
	assert.Len(t, events.playEvents, 1)
}

func TestRecordPlayFailsWhenEventAppendFails(t *testing.T) {
	events := newFakeEngagementRepo()
	events.insertErr = apperr.New(apperr.KindTransientStore, "pool exhausted")
	tracks := newFakeTrackRepo(activeTrack(1))
	svc := newTestService(tracks, events, newFakeFavoriteRepo(), &fakeAssetStore{})

	err := svc.RecordPlay(context.Background(), 1, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindTransientStore))
	assert.Empty(t, tracks.incremented)
}

func TestRecordDownloadGrantsPresignedURL(t *testing.T) {
	events := newFakeEngagementRepo()
	events.downloadFileURL = "audio/my-song.flac"
	events.downloadTitle = "My  Song!"
	assets := &fakeAssetStore{}
	svc := newTestService(newFakeTrackRepo(activeTrack(1)), events, newFakeFavoriteRepo(), assets)

	grant, err := svc.RecordDownload(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.Equal(t, "My_Song.flac", grant.Filename)
	assert.Contains(t, grant.URL, "audio/my-song.flac")
	assert.Equal(t, 1, events.downloadCount)
}

func TestRecordDownloadNotFoundSkipsPresign(t *testing.T) {
	events := newFakeEngagementRepo()
	assets := &fakeAssetStore{}
	svc := newTestService(newFakeTrackRepo(), events, newFakeFavoriteRepo(), assets)

	_, err := svc.RecordDownload(context.Background(), 99, 42)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Zero(t, assets.calls)
	assert.Zero(t, events.downloadCount)
}

func TestRecordDownloadRejectsAssetlessTrack(t *testing.T) {
	inactive := activeTrack(1)
	inactive.IsActive = false
	noAsset := activeTrack(2)
	noAsset.FileURL = ""
	events := newFakeEngagementRepo()
	svc := newTestService(newFakeTrackRepo(inactive, noAsset), events, newFakeFavoriteRepo(), &fakeAssetStore{})

	for _, trackID := range []int64{1, 2} {
		_, err := svc.RecordDownload(context.Background(), trackID, 42)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "track %d", trackID)
	}
	assert.Zero(t, events.downloadCount)
}

func TestRecordDownloadMissingObjectWritesNothing(t *testing.T) {
	events := newFakeEngagementRepo()
	assets := &fakeAssetStore{missing: true}
	svc := newTestService(newFakeTrackRepo(activeTrack(1)), events, newFakeFavoriteRepo(), assets)

	// file_url points at an object the store no longer has. The download
	// must fail NotFound with no event row and no counter bump.
	_, err := svc.RecordDownload(context.Background(), 1, 42)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Zero(t, events.downloadCount)
	assert.Zero(t, assets.calls)
}

func TestTrackStats(t *testing.T) {
	events := newFakeEngagementRepo()
	events.counters[1] = model.TrackCounters{Plays: 10, Downloads: 4}
	events.playCounts[1] = 10
	events.playsByDay = map[string]int64{"2026-08-31": 10}

	playlists := &fakePlaylistRepo{memberships: map[int64]int64{1: 2}}
	favorites := newFakeFavoriteRepo()
	for userID := int64(1); userID <= 3; userID++ {
		_, err := favorites.Insert(context.Background(), userID, 1)
		require.NoError(t, err)
	}

	svc := NewService(newFakeTrackRepo(activeTrack(1)), events, favorites, playlists, &fakeAssetStore{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }

	stats, err := svc.TrackStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TrackID)
	assert.Equal(t, int64(10), stats.Counters.Plays)
	assert.Equal(t, int64(4), stats.Counters.Downloads)
	assert.Equal(t, int64(2), stats.Counters.PlaylistMemberships)
	assert.Equal(t, int64(3), stats.Counters.FavoriteCount)
	require.Len(t, stats.Weekly, 7)
	assert.Equal(t, int64(10), stats.Weekly[6].Plays)
}

func TestTrackStatsServesCachedCounterOnDrift(t *testing.T) {
	events := newFakeEngagementRepo()
	events.counters[1] = model.TrackCounters{Plays: 10, Downloads: 4}
	events.playCounts[1] = 7 // event log disagrees with the cached counter
	svc := newTestService(newFakeTrackRepo(activeTrack(1)), events, newFakeFavoriteRepo(), &fakeAssetStore{})

	// Drift is logged for reconciliation, never surfaced as a failure; the
	// cached counter is what callers see.
	stats, err := svc.TrackStats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.Counters.Plays)
}

func TestTrackStatsUnknownTrack(t *testing.T) {
	svc := newTestService(newFakeTrackRepo(), newFakeEngagementRepo(), newFakeFavoriteRepo(), &fakeAssetStore{})

	_, err := svc.TrackStats(context.Background(), 99)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUserStats(t *testing.T) {
	events := newFakeEngagementRepo()
	events.userPlays = 7
	events.userDownloads = 2
	svc := newTestService(newFakeTrackRepo(), events, newFakeFavoriteRepo(), &fakeAssetStore{})

	stats, err := svc.UserStats(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.UserID)
	assert.Equal(t, int64(7), stats.Plays)
	assert.Equal(t, int64(2), stats.Downloads)
	assert.Len(t, stats.Weekly, 7)
}

func TestSuggestedFilename(t *testing.T) {
	cases := []struct {
		title, ext, want string
	}{
		{"My Song", ".flac", "My_Song.flac"},
		{"  spaced   out  ", ".mp3", "spaced_out.mp3"},
		{"slash/and:colon", ".mp3", "slashandcolon.mp3"},
		{"", "", "track.mp3"},
		{"???", ".ogg", "track.ogg"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, suggestedFilename(tc.title, tc.ext), tc.title)
	}
}
