package metrics

type Config struct {
	ServiceName  string
	OTLPEndpoint string
	OTLPInsecure bool
}

type OptionFn func(config Config) Config

func WithServiceName(name string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = name
		return config
	}
}

// WithOTLPEndpoint adds a periodic OTLP gRPC reader next to the Prometheus reader.
func WithOTLPEndpoint(url string, insecure bool) OptionFn {
	return func(config Config) Config {
		config.OTLPEndpoint = url
		config.OTLPInsecure = insecure
		return config
	}
}
