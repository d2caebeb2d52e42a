package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name AttributeProvider --dir ../domain/player --output domain/player --outpkg playermock --filename attribute_provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Sink --dir ../domain/notification --output domain/notification --outpkg notificationmock --filename sink_mock.go
