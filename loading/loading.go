// Package loading defines the progress events emitted only during startup
// bootstrap (spec §3's "Loading event"). The loading bus is closed once
// bootstrap completes; subscribers treat the close as "loading done".
package loading

import "github.com/tolelom/spvnode/protocol"

// Event is one bootstrap progress notification.
type Event interface{ loadingEvent() }

// BlockHeaderLoaded fires once per block header replayed from the header
// store during startup.
type BlockHeaderLoaded struct {
	Height protocol.Height
}

func (BlockHeaderLoaded) loadingEvent() {}

// FilterHeaderLoaded fires once per filter header replayed from the
// filter-header store during startup.
type FilterHeaderLoaded struct {
	Height protocol.Height
}

func (FilterHeaderLoaded) loadingEvent() {}

// FilterHeaderVerified fires once per filter header verified against its
// chained predecessor during startup.
type FilterHeaderVerified struct {
	Height protocol.Height
}

func (FilterHeaderVerified) loadingEvent() {}
