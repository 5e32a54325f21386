package network

import (
	"context"

	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/store"
)

// RemoteStore is the store bound over JSON-RPC. The caller identity is the
// subject of the client's bearer token.
type RemoteStore struct {
	rpc *RPCClient
}

var (
	_ store.FileStore     = (*RemoteStore)(nil)
	_ store.SharingStore  = (*RemoteStore)(nil)
	_ store.UserDirectory = (*RemoteStore)(nil)
)

// NewRemoteStore returns a store that calls the server behind rpc.
func NewRemoteStore(rpc *RPCClient) *RemoteStore {
	return &RemoteStore{rpc: rpc}
}

func (r *RemoteStore) OpenAtomic(ctx context.Context, req store.OpenRequest) (uint64, error) {
	var out openResult
	if err := r.rpc.Call(ctx, MethodOpenAtomic, req, &out); err != nil {
		return 0, err
	}
	return out.FileID, nil
}

func (r *RemoteStore) ContinueChunk(ctx context.Context, fileID, index uint64, content []byte) error {
	return r.rpc.Call(ctx, MethodContinueChunk, chunkParams{FileID: fileID, Index: index, Content: content}, nil)
}

func (r *RemoteStore) FetchChunk(ctx context.Context, fileID, index uint64) (*store.Chunk, error) {
	var out store.Chunk
	if err := r.rpc.Call(ctx, MethodFetchChunk, chunkParams{FileID: fileID, Index: index}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RemoteStore) ListFiles(ctx context.Context) ([]store.FileMetadata, error) {
	var out []store.FileMetadata
	if err := r.rpc.Call(ctx, MethodListFiles, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteStore) FileInfo(ctx context.Context, fileID uint64) (*store.FileMetadata, error) {
	var out store.FileMetadata
	if err := r.rpc.Call(ctx, MethodFileInfo, fileParams{FileID: fileID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RemoteStore) DeleteFile(ctx context.Context, fileID uint64) error {
	return r.rpc.Call(ctx, MethodDeleteFile, fileParams{FileID: fileID}, nil)
}

func (r *RemoteStore) RegisterFile(ctx context.Context, req store.RegisterRequest) (uint64, error) {
	var out openResult
	if err := r.rpc.Call(ctx, MethodRegisterFile, req, &out); err != nil {
		return 0, err
	}
	return out.FileID, nil
}

func (r *RemoteStore) Share(ctx context.Context, fileID uint64, grantee string) error {
	return r.rpc.Call(ctx, MethodShare, shareParams{FileID: fileID, Grantee: grantee}, nil)
}

func (r *RemoteStore) Unshare(ctx context.Context, fileID uint64, grantee string) error {
	return r.rpc.Call(ctx, MethodUnshare, shareParams{FileID: fileID, Grantee: grantee}, nil)
}

func (r *RemoteStore) GetSharedFiles(ctx context.Context) (*store.SharedFiles, error) {
	var out store.SharedFiles
	if err := r.rpc.Call(ctx, MethodSharedFiles, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RemoteStore) ListGrantees(ctx context.Context, fileID uint64) ([]store.User, error) {
	var out []store.User
	if err := r.rpc.Call(ctx, MethodListGrantees, fileParams{FileID: fileID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RemoteStore) CreateProfile(ctx context.Context, username, displayName string) (*store.User, error) {
	var out store.User
	if err := r.rpc.Call(ctx, MethodCreateProfile, profileParams{Username: username, DisplayName: displayName}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *RemoteStore) LookupUser(ctx context.Context, username string) (*store.User, error) {
	var out store.User
	if err := r.rpc.Call(ctx, MethodLookupUser, profileParams{Username: username}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoteAuthority is the key authority bound over JSON-RPC.
type RemoteAuthority struct {
	rpc *RPCClient
}

var _ keyauth.KeyAuthority = (*RemoteAuthority)(nil)

// NewRemoteAuthority returns an authority that calls the server behind rpc.
func NewRemoteAuthority(rpc *RPCClient) *RemoteAuthority {
	return &RemoteAuthority{rpc: rpc}
}

func (a *RemoteAuthority) GetPublicKey(ctx context.Context) ([]byte, error) {
	var out publicKeyResult
	if err := a.rpc.Call(ctx, MethodPublicKey, nil, &out); err != nil {
		return nil, err
	}
	return out.PublicKey, nil
}

func (a *RemoteAuthority) GetEncryptedDecryptionKey(ctx context.Context, transportPublicKey []byte, identity principal.Identity, fileID *uint64) ([]byte, error) {
	var out keyResult
	params := keyParams{TransportPublicKey: transportPublicKey, Identity: identity, FileID: fileID}
	if err := a.rpc.Call(ctx, MethodDecryptionKey, params, &out); err != nil {
		return nil, err
	}
	return out.WrappedKey, nil
}
