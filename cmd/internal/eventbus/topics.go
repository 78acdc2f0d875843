package eventbus

// 생성 파이프라인의 모든 이벤트(generate, generate.completed, generate.failed)는
// 하나의 토픽을 공유하고 education_personal_id 를 키로 같은 파티션에 모인다.

var (
	TopicGenerationEvents = NewTopic("edu-gen.generation.events")
)

var AllTopics = []Topic{
	TopicGenerationEvents,
}
