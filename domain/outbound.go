package domain

// Outbound is a send intent produced by the presentation layer and drained
// by the client pump. Exactly one of Text or File is set.
type Outbound struct {
	Text string
	File *FileSendRequest
}

type FileSendRequest struct {
	Path string `validate:"required,max=1024"`
}
