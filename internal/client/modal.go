package client

import "errors"

// ModalState is the phase of the per-upload tag-editing dialog.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalOpen
)

var (
	errModalClosed   = errors.New("modal: no upload in progress")
	errModalBusy     = errors.New("modal: an upload is already being edited")
	errModalNoFile   = errors.New("modal: filename is required")
	errModalEmptyTag = errors.New("modal: tag must not be empty")
)

// TagModal collects tags for one pending upload. Opening it resets the tag
// buffer; Confirm commits the buffer and hands back the pending file,
// Cancel discards both. There is no way back to editing without re-opening
// with a new file.
type TagModal struct {
	state    ModalState
	filename string
	content  []byte
	buffer   []string
}

// NewTagModal starts closed.
func NewTagModal() *TagModal {
	return &TagModal{state: ModalClosed}
}

// State returns the current modal phase.
func (m *TagModal) State() ModalState { return m.state }

// Open stages a file for upload and resets the tag buffer.
func (m *TagModal) Open(filename string, content []byte) error {
	if m.state != ModalClosed {
		return errModalBusy
	}
	if filename == "" {
		return errModalNoFile
	}
	m.state = ModalOpen
	m.filename = filename
	m.content = content
	m.buffer = []string{}
	return nil
}

// AddTag appends a tag to the buffer, skipping duplicates.
func (m *TagModal) AddTag(tag string) error {
	if m.state != ModalOpen {
		return errModalClosed
	}
	if tag == "" {
		return errModalEmptyTag
	}
	for _, t := range m.buffer {
		if t == tag {
			return nil
		}
	}
	m.buffer = append(m.buffer, tag)
	return nil
}

// Tags returns a copy of the buffered tags.
func (m *TagModal) Tags() []string {
	out := make([]string, len(m.buffer))
	copy(out, m.buffer)
	return out
}

// Confirm commits the buffer as the document's tag list and returns the
// pending file for the upload flow. The modal closes.
func (m *TagModal) Confirm() (filename string, content []byte, tags []string, err error) {
	if m.state != ModalOpen {
		return "", nil, nil, errModalClosed
	}
	filename, content, tags = m.filename, m.content, m.Tags()
	m.reset()
	return filename, content, tags, nil
}

// Cancel discards the buffer and the pending file. The modal closes.
func (m *TagModal) Cancel() {
	m.reset()
}

func (m *TagModal) reset() {
	m.state = ModalClosed
	m.filename = ""
	m.content = nil
	m.buffer = nil
}
