package eventbus

// ColumnGenerated - полезная нагрузка TypeColumnGenerated
type ColumnGenerated struct {
	Island int    `json:"island"`
	Column string `json:"column"`
	Error  string `json:"error,omitempty"`
}

// ChunkRendered - полезная нагрузка TypeChunkRendered
type ChunkRendered struct {
	Island int    `json:"island"`
	Chunk  string `json:"chunk"`
	Faces  int    `json:"faces"`
}

// BlockDestroyed - полезная нагрузка TypeBlockDestroyed
type BlockDestroyed struct {
	Island   int    `json:"island"`
	Location string `json:"location"`
}
