package oistream

import (
	"context"
	"sync"

	"oiscan/internal/models"
	"oiscan/logger"
)

// ChannelStats keeps counters for telemetry.
type ChannelStats struct {
	Sent    int64
	Dropped int64
}

// Channels carries live open-interest updates from the watcher to whichever
// consumer renders them.
type Channels struct {
	Updates chan models.OpenInterestUpdate

	stats ChannelStats
	mu    sync.RWMutex
	log   *logger.Log
}

// NewChannels constructs the update channel group.
func NewChannels(bufferSize int) *Channels {
	log := logger.GetLogger()
	ch := &Channels{
		Updates: make(chan models.OpenInterestUpdate, bufferSize),
		log:     log,
	}

	log.WithComponent("oistream_channels").WithFields(logger.Fields{
		"buffer_size": bufferSize,
	}).Info("open-interest stream channels initialized")

	return ch
}

// Close releases all resources.
func (c *Channels) Close() {
	close(c.Updates)
	c.log.WithComponent("oistream_channels").Info("open-interest stream channels closed")
}

// SendUpdate attempts to enqueue an update, dropping it under backpressure.
func (c *Channels) SendUpdate(ctx context.Context, update models.OpenInterestUpdate) bool {
	select {
	case c.Updates <- update:
		c.incrementSent()
		return true
	case <-ctx.Done():
		return false
	default:
		c.incrementDropped()
		return false
	}
}

// GetStats returns a snapshot of the channel counters.
func (c *Channels) GetStats() ChannelStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Channels) incrementSent() {
	c.mu.Lock()
	c.stats.Sent++
	c.mu.Unlock()
}

func (c *Channels) incrementDropped() {
	c.mu.Lock()
	c.stats.Dropped++
	c.mu.Unlock()
}
