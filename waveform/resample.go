package waveform

import "math"

// Resample сводит огибающую ровно к buckets значениям: длинную усредняет по отрезкам,
// короткую растягивает повтором ближайшего значения.
func Resample(src []float64, buckets int) []float64 {
	if buckets <= 0 || len(src) == 0 {
		return nil
	}
	if buckets == len(src) {
		return append([]float64(nil), src...)
	}
	if buckets > len(src) {
		return stretch(src, buckets)
	}

	out := make([]float64, buckets)
	segment := float64(len(src)) / float64(buckets)
	for i := range out {
		start := int(math.Floor(float64(i) * segment))
		end := int(math.Floor(float64(i+1) * segment))
		if end <= start {
			end = start + 1
		}
		if end > len(src) {
			end = len(src)
		}
		sum := 0.0
		for _, v := range src[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func stretch(src []float64, buckets int) []float64 {
	out := make([]float64, buckets)
	ratio := float64(len(src)) / float64(buckets)
	for i := range out {
		j := int(float64(i) * ratio)
		if j >= len(src) {
			j = len(src) - 1
		}
		out[i] = src[j]
	}
	return out
}
