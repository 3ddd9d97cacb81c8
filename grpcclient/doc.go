// Package grpcclient provides a fluent builder for secure gRPC client connections with optional
// Google service-account authentication.
//
// It defaults to TLS 1.2+ using system roots to avoid accidental plaintext connections. Optional
// methods let you add token interceptors, custom CA or mTLS credentials, and extra dial options.
//
// # Features
//
//   - Fluent builder for gRPC clients
//   - Service-account tokens via oauth2client, from parsed credentials, a key file, or a shared TokenCache
//   - Secure-by-default TLS; optional custom CA and mTLS
//   - Additional dial options via WithDialOptions
//
// # Quick Start
//
//	conn, err := grpcclient.NewBuilder().
//	    WithAddress("pubsub.googleapis.com:443").
//	    WithServiceAccountFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), serviceaccount.ScopeCloudPlatform).
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	client := pb.NewPublisherClient(conn)
//
// # TLS Behavior
//
// TLS is enabled by default with system CAs and TLS 1.2 minimum. WithTLS allows supplying a custom
// root CA and optional client cert/key for mTLS; both cert and key must be provided together.
package grpcclient
