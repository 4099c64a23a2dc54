package templating

type IndexFileModel struct {
	Name              string
	Href              string
	SizeBytes         int64
	SizeBytesHuman    string
	Poster            string
	Segments          int
	LastModified      int64
	LastModifiedHuman string
}

type IndexModel struct {
	Base           string
	Name           string
	SizeBytes      int64
	SizeBytesHuman string
	Files          []*IndexFileModel
}
