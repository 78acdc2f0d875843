package eventbus

import (
	"os"
	"strconv"
	"strings"

	"edu-gen/cmd/internal/logger"
)

// GetBrokers returns Kafka bootstrap servers from env KAFKA_BOOTSTRAP_SERVERS
func GetBrokers() string {
	v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS")
	if v == "" {
		panic("KAFKA_BOOTSTRAP_SERVERS environment variable is required")
	}
	return v
}

// GetGroupID returns consumer group id from env KAFKA_GROUP_ID
func GetGroupID() string {
	v := os.Getenv("KAFKA_GROUP_ID")
	if v == "" {
		panic("KAFKA_GROUP_ID environment variable is required")
	}
	return v
}

func getKafkaMessageMaxBytesFromEnv() int {
	maxBytesStr := os.Getenv("KAFKA_MESSAGE_MAX_BYTES")
	if maxBytesStr == "" {
		return 0
	}

	maxBytes, err := strconv.Atoi(maxBytesStr)
	if err != nil {
		logger.Log.Warnf("KAFKA_MESSAGE_MAX_BYTES 환경변수 파싱 실패: %v. 기본값 사용.", err)
		return 0
	}

	if maxBytes < 1 {
		logger.Log.Warnf("KAFKA_MESSAGE_MAX_BYTES 환경변수 값이 너무 작습니다. 최소값 1 사용.")
		return 1
	}

	return maxBytes
}

// getKafkaMaxPollIntervalMsFromEnv 는 KAFKA_MAX_POLL_INTERVAL_MS 에서 max.poll.interval.ms 를 읽는다.
// LLM 호출이 길어질 수 있으므로 provider_timeout 보다 충분히 크게 잡아야 한다.
func getKafkaMaxPollIntervalMsFromEnv() int {
	raw := strings.TrimSpace(os.Getenv("KAFKA_MAX_POLL_INTERVAL_MS"))
	if raw == "" {
		return 0
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		logger.Log.Warnf("KAFKA_MAX_POLL_INTERVAL_MS 환경변수 파싱 실패: %v. 기본값 사용.", err)
		return 0
	}

	if value <= 0 {
		logger.Log.Warnf("KAFKA_MAX_POLL_INTERVAL_MS 환경변수 값이 0 이하입니다. 기본값 사용.")
		return 0
	}

	return value
}
