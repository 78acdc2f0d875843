package repositories

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStateConflict 는 조건부 상태 전이가 현재 상태와 맞지 않을 때 반환된다.
	ErrStateConflict = errors.New("state conflict")

	ErrSlugExhausted = errors.New("no free slug candidate")
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// isDuplicateOn 은 err 가 이름에 index 를 포함하는 유니크 인덱스의 중복 키 오류인지 확인한다.
func isDuplicateOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}
