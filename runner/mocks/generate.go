//go:generate mockgen -source=../broker.go -destination=./mock_broker.go -package=mocks

package mocks
