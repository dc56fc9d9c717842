package services

// totalQuestions is the IELTS listening/reading convention of 40 questions
// per test. Historical score reports were produced against this constant
// rather than the actual question count of the test, so it stays hard-coded
// for compatibility.
const totalQuestions = 40

type bandThreshold struct {
	correct int
	band    float64
}

// Thresholds evaluate top-down; first match wins. The table reproduces the
// historical conversion verbatim and must not be "fixed".
var bandTable = []bandThreshold{
	{39, 9.0},
	{37, 8.5},
	{35, 8.0},
	{32, 7.5},
	{30, 7.0},
	{26, 6.5},
	{23, 6.0},
	{18, 5.5},
	{16, 5.0},
	{13, 4.5},
	{10, 4.0},
}

// BandScore converts a raw correct-answer count into the standardized
// 0-9 band score. Monotonic non-decreasing over [0, 40]; anything below
// 10 correct answers scores 0.0.
func BandScore(correct int) float64 {
	for _, t := range bandTable {
		if correct >= t.correct {
			return t.band
		}
	}
	return 0.0
}
