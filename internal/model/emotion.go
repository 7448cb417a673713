package model

// Emotion は夢の中で感じた感情ラベルを表す。
type Emotion string

// 選択可能な感情ラベル。表示順もこの順序に従う。
const (
	EmotionJoy        Emotion = "Joy"
	EmotionFear       Emotion = "Fear"
	EmotionSadness    Emotion = "Sadness"
	EmotionAnxiety    Emotion = "Anxiety"
	EmotionPeace      Emotion = "Peace"
	EmotionConfusion  Emotion = "Confusion"
	EmotionExcitement Emotion = "Excitement"
	EmotionAnger      Emotion = "Anger"
)

// AllEmotions は選択可能な感情ラベルを表示順で返す。
func AllEmotions() []Emotion {
	return []Emotion{
		EmotionJoy,
		EmotionFear,
		EmotionSadness,
		EmotionAnxiety,
		EmotionPeace,
		EmotionConfusion,
		EmotionExcitement,
		EmotionAnger,
	}
}

// IsValidEmotion はラベルが定義済みの感情かどうかを判定する。
func IsValidEmotion(label string) bool {
	for _, e := range AllEmotions() {
		if string(e) == label {
			return true
		}
	}
	return false
}

// DedupeEmotions は選択順を保ったまま重複ラベルを取り除く。
func DedupeEmotions(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
