package comm

// FrameReader reads encoded frames in bytes.
type FrameReader interface {
	ReadFrame() ([]byte, error)
}

// FrameWriter writes encoded frames in bytes.
type FrameWriter interface {
	WriteFrame([]byte) error
}

// FrameReadWriter reads/writes encoded frames in bytes.
type FrameReadWriter interface {
	FrameReader
	FrameWriter
}
