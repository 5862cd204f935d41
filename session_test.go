package trimsound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Roman77St/trimsound/export"
	"github.com/Roman77St/trimsound/play"
	"github.com/Roman77St/trimsound/syncer"
)

// fakePlayer — плеер без звука: длина задаётся при открытии.
type fakePlayer struct {
	lengths   map[string]time.Duration
	path      string
	device    string
	pos       time.Duration
	state     play.State
	volume    float64
	closed    int
	onStopped func()
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{lengths: map[string]time.Duration{}, volume: 1}
}

func (f *fakePlayer) Open(_ context.Context, path, device string) error {
	if device != play.DefaultDevice {
		return play.ErrUnsupportedDevice
	}
	if _, ok := f.lengths[path]; !ok {
		return play.ErrUnsupportedFormat
	}
	f.path, f.device, f.pos, f.state = path, device, 0, play.Stopped
	return nil
}

func (f *fakePlayer) Close() error {
	f.closed++
	f.path, f.state = "", play.Stopped
	return nil
}

func (f *fakePlayer) Position() time.Duration { return f.pos }
func (f *fakePlayer) Length() time.Duration   { return f.lengths[f.path] }
func (f *fakePlayer) State() play.State       { return f.state }
func (f *fakePlayer) Volume() float64         { return f.volume }
func (f *fakePlayer) SetVolume(v float64)     { f.volume = v }
func (f *fakePlayer) OnStopped(fn func())     { f.onStopped = fn }

func (f *fakePlayer) SetPosition(d time.Duration) error {
	f.pos = d
	return nil
}

func (f *fakePlayer) Play() error {
	if f.path == "" {
		return play.ErrNoTrack
	}
	f.state = play.Playing
	return nil
}

func (f *fakePlayer) Pause() error {
	if f.state == play.Playing {
		f.state = play.Paused
	}
	return nil
}

func (f *fakePlayer) Stop() error {
	f.state, f.pos = play.Stopped, 0
	return nil
}

type fakeSamples struct {
	samples []float64
}

func (f fakeSamples) Samples(context.Context, string, int) ([]float64, error) {
	return f.samples, nil
}

type recordingTranscoder struct {
	start, duration float64
	input, output   string
}

func (r *recordingTranscoder) Trim(_ context.Context, input, output string, start, duration float64) error {
	r.input, r.output, r.start, r.duration = input, output, start, duration
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func newTestSession(t *testing.T) (*Session, *fakePlayer, *recordingTranscoder) {
	t.Helper()
	p := newFakePlayer()
	p.lengths["song.mp3"] = 200 * time.Second
	p.lengths["other.wav"] = 10 * time.Second
	tr := &recordingTranscoder{}
	s := NewSession(p, Options{
		Transcoder: tr,
		Samples:    fakeSamples{samples: []float64{0, 1, 0, 1, 0.5, 0.5}},
	})
	s.Resize(100, 20)
	return s, p, tr
}

func TestOpen_ResetsSelection(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.Slider().SetSelection(20, 40)
	s.Slider().SetCursor(30)

	require.NoError(t, s.Open(context.Background(), "other.wav", play.DefaultDevice))
	low, high := s.Slider().Selection()
	assert.Equal(t, 0.0, low)
	assert.Equal(t, 100.0, high)
	assert.Equal(t, 0.0, s.Slider().Cursor())
	assert.Equal(t, "other.wav", s.Path())
	assert.Equal(t, 10*time.Second, s.Length())
}

func TestOpen_FailureKeepsState(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.Slider().SetSelection(20, 40)

	err := s.Open(context.Background(), "broken.xyz", "")
	var openErr *FileOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "broken.xyz", openErr.Path)
	assert.ErrorIs(t, err, play.ErrUnsupportedFormat)

	assert.Equal(t, "song.mp3", s.Path())
	low, high := s.Slider().Selection()
	assert.Equal(t, 20.0, low)
	assert.Equal(t, 40.0, high)
}

func TestOpen_UnsupportedDevice(t *testing.T) {
	s, _, _ := newTestSession(t)
	err := s.Open(context.Background(), "song.mp3", "hdmi")
	var openErr *FileOpenError
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, play.ErrUnsupportedDevice)
	assert.False(t, s.Loaded())
}

func TestWaveform_AppliedForCurrentFileOnly(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))

	samples, err := s.ExtractWaveform(context.Background(), "song.mp3")
	require.NoError(t, err)

	assert.False(t, s.SetWaveform("other.wav", samples))
	assert.Nil(t, s.Slider().Waveform())

	assert.True(t, s.SetWaveform("song.mp3", samples))
	// короткая огибающая растягивается на всю ширину шкалы
	assert.Len(t, s.Slider().Waveform(), 100)

	s.Resize(3, 20)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, s.Slider().Waveform())
}

func TestWaveform_ClearedOnOpen(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.SetWaveform("song.mp3", []float64{1, 1})

	require.NoError(t, s.Open(context.Background(), "other.wav", ""))
	assert.Nil(t, s.Slider().Waveform())
}

func TestStop_KeepsWaveform(t *testing.T) {
	s, p, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	require.True(t, s.SetWaveform("song.mp3", []float64{1, 1}))
	s.Slider().SetSelection(20, 40)
	require.NoError(t, s.Play())

	require.NoError(t, s.Stop())
	assert.Equal(t, play.Stopped, p.state)
	assert.Len(t, s.Slider().Waveform(), 100)
	assert.True(t, s.Loaded())
	low, high := s.Slider().Selection()
	assert.Equal(t, 20.0, low)
	assert.Equal(t, 40.0, high)
}

func TestClose_DiscardsState(t *testing.T) {
	s, p, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.SetWaveform("song.mp3", []float64{1, 1})
	require.NoError(t, s.Play())
	s.Slider().PointerDown(100)
	require.True(t, s.Slider().Dragging())

	require.NoError(t, s.Close())
	assert.False(t, s.Slider().Dragging())
	assert.Nil(t, s.Slider().Waveform())
	assert.False(t, s.Loaded())
	assert.Equal(t, play.Stopped, p.state)
	assert.Equal(t, syncer.Status{}, s.Tick())

	require.NoError(t, s.Close())
}

func TestExport_UsesSelection(t *testing.T) {
	s, _, tr := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.Slider().SetSelection(25, 75)

	plan, err := s.Export(context.Background(), "song_trim.mp3")
	require.NoError(t, err)
	assert.InDelta(t, 50, plan.Start, 1e-9)
	assert.InDelta(t, 100, plan.Duration, 1e-9)
	assert.Equal(t, "song.mp3", tr.input)
	assert.Equal(t, "song_trim.mp3", tr.output)
	assert.InDelta(t, 100, tr.duration, 1e-9)
}

func TestExport_NoFile(t *testing.T) {
	s, _, tr := newTestSession(t)
	_, err := s.Export(context.Background(), "out.mp3")
	assert.ErrorIs(t, err, export.ErrInvalidSelection)
	assert.Empty(t, tr.output)
	assert.Empty(t, s.DefaultExportPath())
}

func TestExport_EmptySelection(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.Slider().SetSelection(40, 40)

	_, err := s.Export(context.Background(), "out.mp3")
	assert.ErrorIs(t, err, export.ErrInvalidSelection)
}

func TestDefaultExportPath(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	assert.Equal(t, "song_trim.mp3", s.DefaultExportPath())
}

func TestPublish_NotConfigured(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.False(t, s.CanPublish())
	_, err := s.Publish(context.Background(), "song_trim.mp3")
	assert.ErrorIs(t, err, ErrNoPublisher)
}

func TestPublish_UsesPublisher(t *testing.T) {
	pub := &mockPublisher{}
	ctx := context.Background()
	pub.On("Publish", ctx, "song_trim.mp3").Return("https://clips.example/song_trim.mp3", nil).Once()
	pub.On("Publish", ctx, "broken.mp3").Return("", errors.New("access denied")).Once()

	s := NewSession(newFakePlayer(), Options{Publisher: pub})
	require.True(t, s.CanPublish())

	url, err := s.Publish(ctx, "song_trim.mp3")
	require.NoError(t, err)
	assert.Equal(t, "https://clips.example/song_trim.mp3", url)

	_, err = s.Publish(ctx, "broken.mp3")
	assert.EqualError(t, err, "access denied")
	pub.AssertExpectations(t)
}

func TestPlayback_BoundaryThroughSession(t *testing.T) {
	s, p, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))
	s.Slider().SetSelection(10, 50)

	require.NoError(t, s.Play())
	assert.Equal(t, 20*time.Second, p.pos)

	p.pos = 100 * time.Second
	st := s.Tick()
	assert.Equal(t, play.Paused, st.State)
	assert.Equal(t, 50.0, s.Slider().Cursor())
	assert.Equal(t, "01:40 / 03:20  [00:20 - 01:40]", StatusLine(st))

	require.NoError(t, s.TogglePause())
	assert.Equal(t, play.Playing, p.state)
	assert.Equal(t, 20*time.Second, p.pos)
}

func TestPlayback_StoppedNotification(t *testing.T) {
	s, p, _ := newTestSession(t)
	require.NoError(t, s.Open(context.Background(), "song.mp3", ""))

	notified := false
	s.OnPlaybackStopped(func() { notified = true })
	require.NoError(t, s.Play())
	s.Slider().PointerDown(0)

	p.state = play.Stopped
	p.onStopped()
	s.HandlePlaybackStopped()

	assert.True(t, notified)
	assert.False(t, s.Slider().Dragging())
}

func TestPlay_NoFile(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.True(t, errors.Is(s.Play(), play.ErrNoTrack))
}

func TestVolume(t *testing.T) {
	s, p, _ := newTestSession(t)
	s.SetVolume(35)
	assert.InDelta(t, 0.35, p.volume, 1e-9)
	assert.Equal(t, 35, s.Volume())

	s.SetVolume(150)
	assert.Equal(t, 100, s.Volume())
	s.SetVolume(-5)
	assert.Equal(t, 0, s.Volume())
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{65*time.Second + 900*time.Millisecond, "01:05"},
		{75*time.Minute + 2*time.Second, "75:02"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.in), tt.in.String())
	}
}
