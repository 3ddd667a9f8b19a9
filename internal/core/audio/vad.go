package audio

// SpeechThreshold is the mean absolute amplitude above which a capture
// block counts as voice. Tuned for UI feedback, not protocol decisions.
const SpeechThreshold = 0.01

// Level returns the mean absolute amplitude of a sample block.
func Level(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	return sum / float64(len(samples))
}

// Speaking reports whether a block carries voice energy.
func Speaking(samples []float32) bool {
	return Level(samples) > SpeechThreshold
}
