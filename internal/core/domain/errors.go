package domain

import "errors"

var (
	ErrInvalidName      = errors.New("invalid name")
	ErrUnsupportedType  = errors.New("unsupported asset type")
	ErrDuplicateAsset   = errors.New("asset already exists")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrSceneNotFound    = errors.New("scene not found")
	ErrDuplicateScript  = errors.New("script already exists")
	ErrScriptNotFound   = errors.New("script not found")
	ErrUnknownSetting   = errors.New("unknown setting")
	ErrProjectNotExists = errors.New("project not initialized")
)
