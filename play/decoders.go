package play

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/youpy/go-wav"
)

const tempPrefix = "trimsound-"

// errNeedsConversion означает, что поток можно проиграть только после ffmpeg.
var errNeedsConversion = errors.New("stream needs conversion")

// getReadSeeker определяет источник аудио: локальный путь или URL.
// URL скачивается во временный файл целиком, чтобы работал Seek.
func getReadSeeker(path string) (readSeekerAt, io.Closer, error) {
	if isURL(path) {
		resp, err := http.Get(path)
		if err != nil {
			return nil, nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("http error: %s", resp.Status)
		}

		tempFile, err := os.CreateTemp("", tempPrefix+"*"+filepath.Ext(resp.Request.URL.Path))
		if err != nil {
			return nil, nil, fmt.Errorf("create temp file: %w", err)
		}

		if _, err = io.Copy(tempFile, resp.Body); err != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
			return nil, nil, fmt.Errorf("download track: %w", err)
		}

		tempFile.Seek(0, io.SeekStart)

		// при закрытии файл удаляется автоматически
		return tempFile, &tempFileCloser{tempFile}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// tempFileCloser удаляет временный файл с диска после проигрывания.
type tempFileCloser struct {
	f *os.File
}

func (t *tempFileCloser) Close() error {
	filePath := t.f.Name()
	t.f.Close()

	time.Sleep(10 * time.Millisecond)

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("remove temp file %s: %w", filePath, err)
	}
	return nil
}

// getDecoder выбирает декодер по содержимому потока.
// Возвращает errNeedsConversion, если формат или частота не подходят движку.
func getDecoder(rs readSeekerAt, path string, sampleRate int) (decodedStream, error) {
	// 1. Пробуем декодировать как MP3.
	mp3Stream, err := mp3.NewDecoder(rs)
	if err == nil {
		if mp3Stream.SampleRate() != sampleRate {
			return nil, errNeedsConversion
		}
		return mp3Stream, nil
	}

	// Сбрасываем указатель после неудачной попытки.
	rs.Seek(0, io.SeekStart)

	// 2. Пробуем WAV. Напрямую играем только PCM стерео int16.
	d := wav.NewReader(rs)
	finfo, err := d.Format()
	if err == nil {
		rs.Seek(0, io.SeekStart)
		if finfo.AudioFormat != wav.AudioFormatPCM || finfo.NumChannels != channelCount ||
			finfo.BitsPerSample != 16 || int(finfo.SampleRate) != sampleRate {
			return nil, errNeedsConversion
		}
		return &pcmStream{rs, int(finfo.SampleRate)}, nil
	}
	rs.Seek(0, io.SeekStart)

	// 3. Всё остальное (видео-контейнеры, flac, ogg...) отдаём ffmpeg.
	if filepath.Ext(path) == "" {
		return nil, fmt.Errorf("%w: unknown container", ErrUnsupportedFormat)
	}
	return nil, errNeedsConversion
}

// convertToPCM декодирует файл через ffmpeg в «сырой» стерео int16 с частотой движка.
// Результат лежит во временном файле, который удаляется при закрытии.
func convertToPCM(ctx context.Context, ffmpegPath, src string, sampleRate int) (decodedStream, io.Closer, error) {
	if ffmpegPath == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.ToLower(filepath.Ext(src)))
	}
	tempFile, err := os.CreateTemp("", tempPrefix+"*.pcm")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}
	tempFile.Close()

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-ac", strconv.Itoa(channelCount),
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		tempFile.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(tempFile.Name())
		return nil, nil, fmt.Errorf("ffmpeg decode: %w\n%s", err, stderr.String())
	}

	f, err := os.Open(tempFile.Name())
	if err != nil {
		os.Remove(tempFile.Name())
		return nil, nil, err
	}
	return &pcmStream{f, sampleRate}, &tempFileCloser{f}, nil
}

// CleanUpTempFiles удаляет временные файлы, ранее созданные пакетом.
func CleanUpTempFiles() {
	tempDir := os.TempDir()
	files, err := os.ReadDir(tempDir)
	if err != nil {
		return
	}

	for _, file := range files {
		if !file.IsDir() && strings.HasPrefix(file.Name(), tempPrefix) {
			_ = os.Remove(filepath.Join(tempDir, file.Name()))
		}
	}
}
