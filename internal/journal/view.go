package journal

// Journal は1回の表示で扱う夢日記の一覧。
type Journal struct {
	Entries []Entry
}

// NewJournal はentriesを表示順のまま保持するJournalを生成する。
func NewJournal(entries []Entry) *Journal {
	return &Journal{Entries: entries}
}

// Remove は指定IDのエントリだけを取り除き、取り除いたかどうかを返す。
func (j *Journal) Remove(id string) bool {
	for i, e := range j.Entries {
		if e.Dream != nil && e.Dream.ID == id {
			j.Entries = append(j.Entries[:i:i], j.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len はエントリ数を返す。
func (j *Journal) Len() int {
	return len(j.Entries)
}
