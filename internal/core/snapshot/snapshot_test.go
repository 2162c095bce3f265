package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

var testLogger = zerolog.Nop()

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func sampleSnapshot() feed.Snapshot {
	return feed.Snapshot{
		TimeLabel: "09-30",
		Sections: []feed.Section{
			{
				PlatformID:   "zhihu",
				PlatformName: "知乎",
				Items: []feed.Observation{
					{Title: "AI 芯片新进展", Ranks: []int{1}, URL: "https://z/1", MobileURL: "https://m.z/1"},
					{Title: "足球比赛结果", Ranks: []int{2}},
				},
			},
			{
				PlatformID:   "weibo",
				PlatformName: "微博",
				Items: []feed.Observation{
					{Title: "演唱会官宣", Ranks: []int{1}},
				},
			},
		},
		FailedIDs: []string{"baidu"},
	}
}

func TestEncodeDecode(t *testing.T) {
	encoded := Encode(sampleSnapshot())

	require.Contains(t, encoded, "zhihu | 知乎")
	require.Contains(t, encoded, "1. AI 芯片新进展 [URL:https://z/1] [MOBILE:https://m.z/1]")
	require.Contains(t, encoded, "==== 以下ID请求失败 ====")

	decoded := Decode(encoded, "09-30", &testLogger)

	require.Equal(t, "09-30", decoded.TimeLabel)
	require.Len(t, decoded.Sections, 2)
	require.Equal(t, []string{"baidu"}, decoded.FailedIDs)

	zhihu, ok := decoded.Section("zhihu")
	require.True(t, ok)
	require.Equal(t, "知乎", zhihu.PlatformName)
	require.Len(t, zhihu.Items, 2)
	require.Equal(t, "AI 芯片新进展", zhihu.Items[0].Title)
	require.Equal(t, []int{1}, zhihu.Items[0].Ranks)
	require.Equal(t, "https://z/1", zhihu.Items[0].URL)
	require.Equal(t, "https://m.z/1", zhihu.Items[0].MobileURL)
}

func TestDecodeRepeatedTitleAccumulatesRanks(t *testing.T) {
	data := "zhihu | 知乎\n1. 同一标题\n5. 同一标题\n"

	snap := Decode(data, "10-00", &testLogger)

	section, _ := snap.Section("zhihu")
	require.Len(t, section.Items, 1)
	require.Equal(t, []int{1, 5}, section.Items[0].Ranks)
}

func TestEncodeRoundTripPreservesRepeatedRanks(t *testing.T) {
	first := Decode("zhihu | 知乎\n1. 热点A\n5. 热点A\n", "09-30", &testLogger)

	encoded := Encode(first)

	require.Contains(t, encoded, "1. 热点A")
	require.Contains(t, encoded, "5. 热点A")

	second := Decode(encoded, "09-30", &testLogger)

	section, _ := second.Section("zhihu")
	require.Len(t, section.Items, 1)
	require.Equal(t, []int{1, 5}, section.Items[0].Ranks)
}

func TestDecodeSkipsMalformedLines(t *testing.T) {
	data := "zhihu | 知乎\n1. 正常标题\nnot a valid line at all\n2. 另一条\n"

	snap := Decode(data, "10-00", &testLogger)

	section, _ := snap.Section("zhihu")
	require.Len(t, section.Items, 2)
}

func TestDecodeBareHeaderUsesIDAsName(t *testing.T) {
	snap := Decode("hackernews\n1. Show HN\n", "10-00", &testLogger)

	section, ok := snap.Section("hackernews")
	require.True(t, ok)
	require.Equal(t, "hackernews", section.PlatformName)
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, fixedNow, &testLogger)

	path, err := store.Write(sampleSnapshot())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2026-03-14", "txt", "09-30.txt"), path)

	second := sampleSnapshot()
	second.TimeLabel = "12-00"
	second.FailedIDs = nil

	_, err = store.Write(second)
	require.NoError(t, err)

	day, err := store.ReadDay()
	require.NoError(t, err)
	require.Len(t, day, 2)
	require.Equal(t, "09-30", day[0].TimeLabel)
	require.Equal(t, "12-00", day[1].TimeLabel)
}

func TestStoreReadDaySortsLexically(t *testing.T) {
	dir := t.TempDir()
	txtDir := filepath.Join(dir, "2026-03-14", "txt")
	require.NoError(t, os.MkdirAll(txtDir, 0o755))

	for _, label := range []string{"15-00", "08-30", "12-15"} {
		require.NoError(t, os.WriteFile(filepath.Join(txtDir, label+".txt"), []byte("p\n1. t\n"), 0o644))
	}

	store := NewStore(dir, fixedNow, &testLogger)

	day, err := store.ReadDay()
	require.NoError(t, err)
	require.Len(t, day, 3)
	require.Equal(t, "08-30", day[0].TimeLabel)
	require.Equal(t, "12-15", day[1].TimeLabel)
	require.Equal(t, "15-00", day[2].TimeLabel)
}

func TestStoreIsFirstToday(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, fixedNow, &testLogger)

	require.True(t, store.IsFirstToday(), "empty day counts as first")

	_, err := store.Write(sampleSnapshot())
	require.NoError(t, err)
	require.True(t, store.IsFirstToday(), "one file is still the first crawl")

	second := sampleSnapshot()
	second.TimeLabel = "12-00"
	_, err = store.Write(second)
	require.NoError(t, err)
	require.False(t, store.IsFirstToday())
}

func TestStoreReadDayMissingDir(t *testing.T) {
	store := NewStore(t.TempDir(), fixedNow, &testLogger)

	day, err := store.ReadDay()
	require.NoError(t, err)
	require.Empty(t, day)
}
