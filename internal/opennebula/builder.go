package opennebula

import "github.com/stensonb/cloud-agent/internal/sysconfig"

// builder carries the parse state that is only committed to the
// SystemConfig once the whole context has been read.
type builder struct {
	sc *sysconfig.SystemConfig

	// lines counts logical lines; the first one is the header.
	lines int

	hostname string
}

func newBuilder(sc *sysconfig.SystemConfig) *builder {
	return &builder{sc: sc}
}

// stageHostname records an explicit hostname. The last one wins.
func (b *builder) stageHostname(name string) {
	b.hostname = name
}

// fillHostname records a derived hostname if nothing is known yet.
func (b *builder) fillHostname(name string) {
	if b.hostname == "" && b.sc.Hostname == "" {
		b.hostname = name
	}
}

func (b *builder) commit(id string) {
	b.sc.InstanceID = id
	b.sc.InstanceUUID = InstanceUUID(id).String()
	if b.hostname != "" {
		b.sc.Hostname = b.hostname
	}
}
