package play

import (
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// output — то, что плееру нужно от устройства вывода. *oto.Player ему удовлетворяет.
type output interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Volume() float64
	Seek(offset int64, whence int) (int64, error)
	BufferedSize() int
	Close() error
}

var _ output = (*oto.Player)(nil)

var (
	otoCtx     *oto.Context
	engineRate int
	engineOnce sync.Once
	engineErr  error
)

// initEngine инициализирует аудио-движок Oto один раз за все время работы программы.
// Частота дискретизации фиксируется первым вызовом, поток всегда стерео int16.
func initEngine(sampleRate int) error {
	engineOnce.Do(func() {
		CleanUpTempFiles()
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, engineErr = oto.NewContext(op)
		if engineErr == nil {
			<-readyChan
			engineRate = sampleRate
		}
	})
	return engineErr
}

// Точки подмены для тестов: без звуковой карты oto не стартует.
var (
	startEngine = initEngine
	newOutput   = func(r io.Reader) output { return otoCtx.NewPlayer(r) }
)

// decodedStream объединяет возможности чтения и получения частоты дискретизации.
type decodedStream interface {
	io.ReadSeeker
	SampleRate() int
	Length() int64
}

// readSeekerAt нужен специально для WAV-декодера, который требует метод ReadAt.
type readSeekerAt interface {
	io.ReadSeeker
	io.ReaderAt
}

// pcmStream отдаёт «сырые» стерео int16 данные как есть: WAV нужного формата
// или результат конвертации через ffmpeg.
type pcmStream struct {
	io.ReadSeeker
	sampleRate int
}

func (w *pcmStream) SampleRate() int { return w.sampleRate }

func (w *pcmStream) Length() int64 {
	currentPos, _ := w.ReadSeeker.Seek(0, io.SeekCurrent)
	totalSize, _ := w.ReadSeeker.Seek(0, io.SeekEnd)
	w.ReadSeeker.Seek(currentPos, io.SeekStart)

	return totalSize
}

// trackingStream оборачивает поток аудиоданных и отслеживает текущую позицию чтения.
// Прямое обращение к плееру за позицией может вызвать заикание звука.
type trackingStream struct {
	decodedStream
	currentPos int64
	mu         sync.Mutex
}

// Read вызывается плеером oto в процессе воспроизведения.
func (ts *trackingStream) Read(p []byte) (n int, err error) {
	n, err = ts.decodedStream.Read(p)
	ts.mu.Lock()
	ts.currentPos += int64(n)
	ts.mu.Unlock()
	return n, err
}

// Seek изменяет позицию в декодере и синхронизирует внутренний счетчик.
func (ts *trackingStream) Seek(offset int64, whence int) (int64, error) {
	newPos, err := ts.decodedStream.Seek(offset, whence)
	if err == nil {
		ts.mu.Lock()
		ts.currentPos = newPos
		ts.mu.Unlock()
	}
	return newPos, err
}

// CurrentPos возвращает количество байт, прочитанных плеером из потока.
func (ts *trackingStream) CurrentPos() int64 {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.currentPos
}
