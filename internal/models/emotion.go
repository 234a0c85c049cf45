package models

// Emotion is a categorical label attached to an interaction by the
// upstream classifier. The engine treats unknown labels as opaque strings
// so the vocabulary can be extended without a schema change.
type Emotion string

const (
	EmotionNeutral    Emotion = "neutral"
	EmotionSadness    Emotion = "sadness"
	EmotionAnger      Emotion = "anger"
	EmotionAnxiety    Emotion = "anxiety"
	EmotionJoy        Emotion = "joy"
	EmotionStress     Emotion = "stress"
	EmotionFear       Emotion = "fear"
	EmotionDepression Emotion = "depression"
)
