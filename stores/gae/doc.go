//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the botauth
// credential store. It is designed for deployment on Google Cloud Platform
// and supports multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses a single kind:
//   - ProviderCredential: access/refresh token bundles per owner and provider
//
// # Namespacing
//
// Pass a namespace when creating the store to isolate data between tenants:
//
//	store := gae.NewCredentialStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	store := gae.NewCredentialStore(client, "") // default namespace
//	svc := botauth.NewService(store, registry)
package gae
