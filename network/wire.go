package network

import "github.com/wetkeyorg/libwetkey-go/principal"

// Method names served by Server.
const (
	MethodOpenAtomic    = "store.openAtomic"
	MethodContinueChunk = "store.continueChunk"
	MethodFetchChunk    = "store.fetchChunk"
	MethodListFiles     = "store.listFiles"
	MethodFileInfo      = "store.fileInfo"
	MethodDeleteFile    = "store.deleteFile"
	MethodRegisterFile  = "store.registerFile"
	MethodShare         = "sharing.share"
	MethodUnshare       = "sharing.unshare"
	MethodSharedFiles   = "sharing.sharedFiles"
	MethodListGrantees  = "sharing.listGrantees"
	MethodCreateProfile = "users.createProfile"
	MethodLookupUser    = "users.lookup"
	MethodPublicKey     = "keys.publicKey"
	MethodDecryptionKey = "keys.encryptedDecryptionKey"
)

type fileParams struct {
	FileID uint64 `json:"file_id"`
}

type chunkParams struct {
	FileID  uint64 `json:"file_id"`
	Index   uint64 `json:"index"`
	Content []byte `json:"content,omitempty"`
}

type openResult struct {
	FileID uint64 `json:"file_id"`
}

type shareParams struct {
	FileID  uint64 `json:"file_id"`
	Grantee string `json:"grantee"`
}

type profileParams struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

type publicKeyResult struct {
	PublicKey []byte `json:"public_key"`
}

type keyParams struct {
	TransportPublicKey []byte             `json:"transport_public_key"`
	Identity           principal.Identity `json:"identity"`
	FileID             *uint64            `json:"file_id,omitempty"`
}

type keyResult struct {
	WrappedKey []byte `json:"wrapped_key"`
}
