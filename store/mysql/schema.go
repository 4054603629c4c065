package mysql

const schema = `
CREATE TABLE IF NOT EXISTS torrents
(
    info_hash        CHAR(40)     NOT NULL PRIMARY KEY,
    seeders          BIGINT       NOT NULL DEFAULT 0,
    leechers         BIGINT       NOT NULL DEFAULT 0,
    completed        BIGINT       NOT NULL DEFAULT 0,
    created_on       DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    stats_updated_on DATETIME(6)  NULL
) ENGINE = InnoDB;

CREATE TABLE IF NOT EXISTS tracker_keys
(
    tracker_key_id BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
    user_id        BIGINT      NOT NULL,
    tracker_key    VARCHAR(64) NOT NULL,
    valid_until    BIGINT      NOT NULL,
    INDEX idx_tracker_keys_user (user_id)
) ENGINE = InnoDB;
`

const schemaDrop = `
DROP TABLE IF EXISTS tracker_keys;
DROP TABLE IF EXISTS torrents;
`
