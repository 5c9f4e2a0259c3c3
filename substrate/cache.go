package substrate

import (
	"context"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/metadata"
)

// MetadataCache keeps metadata blobs of a chain per runtime spec version
type MetadataCache interface {
	GetMetadata(genesis common.Hash, specVersion uint32) ([]byte, error)
	PutMetadata(genesis common.Hash, specVersion uint32, blob []byte) error
}

// NewCachedClient new client, the metadata is read from cache if the
// node runs a cached runtime version, otherwise fetched and cached.
func NewCachedClient(ctx context.Context, requester Requester, cache MetadataCache) (*Client, error) {
	c := &Client{requester: requester}
	if subscriber, ok := requester.(Subscriber); ok {
		c.subscriber = subscriber
	}
	genesis, err := c.FetchGenesisHash(ctx)
	if err != nil {
		return nil, err
	}
	version, err := c.RuntimeVersion(ctx)
	if err != nil {
		return nil, err
	}
	if blob, err := cache.GetMetadata(genesis, version.SpecVersion); err == nil {
		meta, err := metadata.Parse(blob)
		if err == nil {
			log.Debug("use cached metadata", "genesis", genesis, "specVersion", version.SpecVersion)
			c.setMetadata(meta)
			return c, nil
		}
		log.Warn("cached metadata is broken", "genesis", genesis, "specVersion", version.SpecVersion, "err", err)
	}
	blob, err := c.FetchMetadataBlob(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := metadata.Parse(blob)
	if err != nil {
		return nil, err
	}
	if err = cache.PutMetadata(genesis, version.SpecVersion, blob); err != nil {
		log.Warn("cache metadata failed", "genesis", genesis, "specVersion", version.SpecVersion, "err", err)
	}
	c.setMetadata(meta)
	return c, nil
}
